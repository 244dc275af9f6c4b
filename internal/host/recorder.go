package host

import (
	"context"
	"sync"
)

// Navigation is one successful navigation.
type Navigation struct {
	Method string `json:"method"`
	Route  string `json:"route,omitempty"`
}

// Effects is everything a Recorder captured, ready to hand to a remote UI.
type Effects struct {
	Navigations []Navigation `json:"navigations"`
	Notices     []Notice     `json:"notices"`
	Scrolls     []int        `json:"scrolls"`
}

// Recorder is a Surface that records effects instead of performing them.
// The gateway builds one per request and returns what it captured; tests use
// it to assert on navigation and notices. Route rules follow the host:
// tab routes are only reachable with SwitchTab, other routes only without it.
type Recorder struct {
	mu           sync.Mutex
	tabs         map[string]bool
	scrollHeight int
	measured     bool
	effects      Effects
	attempts     int
}

func NewRecorder(tabRoutes []string) *Recorder {
	r := &Recorder{tabs: make(map[string]bool, len(tabRoutes))}
	for _, t := range tabRoutes {
		r.tabs[t] = true
	}
	return r
}

// SetScrollHeight records the measured scroll height reported by the UI.
func (r *Recorder) SetScrollHeight(h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollHeight = h
	r.measured = h > 0
}

func (r *Recorder) SwitchTab(_ context.Context, route string) error {
	return r.navigate("switchTab", route, r.isTab(route))
}

func (r *Recorder) RedirectTo(_ context.Context, route string) error {
	return r.navigate("redirectTo", route, !r.isTab(route))
}

func (r *Recorder) NavigateTo(_ context.Context, route string) error {
	return r.navigate("navigateTo", route, !r.isTab(route))
}

func (r *Recorder) NavigateBack(_ context.Context) error {
	return r.navigate("navigateBack", "", true)
}

func (r *Recorder) ReLaunch(_ context.Context, route string) error {
	return r.navigate("reLaunch", route, true)
}

func (r *Recorder) isTab(route string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tabs[stripQuery(route)]
}

func (r *Recorder) navigate(method, route string, reachable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if !reachable {
		return ErrNotReachable
	}
	r.effects.Navigations = append(r.effects.Navigations, Navigation{Method: method, Route: route})
	return nil
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects.Notices = append(r.effects.Notices, n)
}

func (r *Recorder) ScrollHeight(_ context.Context) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrollHeight, r.measured
}

func (r *Recorder) PageScrollTo(_ context.Context, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects.Scrolls = append(r.effects.Scrolls, offset)
}

// Effects returns a copy of everything recorded so far.
func (r *Recorder) Effects() Effects {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Effects{
		Navigations: append([]Navigation{}, r.effects.Navigations...),
		Notices:     append([]Notice{}, r.effects.Notices...),
		Scrolls:     append([]int{}, r.effects.Scrolls...),
	}
	return out
}

// Attempts counts navigation calls, including ones that failed.
func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func stripQuery(route string) string {
	for i := 0; i < len(route); i++ {
		if route[i] == '?' {
			return route[:i]
		}
	}
	return route
}
