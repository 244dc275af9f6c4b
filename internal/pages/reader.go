package pages

import (
	"context"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/outline"
	"github.com/dgallion1/rssmd/internal/position"
)

// MsgMidPage tells the user a heading jump was approximate.
const MsgMidPage = "Jumped to the middle of the page"

// OutlineView is the table-of-contents state of a reader screen.
type OutlineView struct {
	Headings       []outline.Heading `json:"headings"`
	ShowOutline    bool              `json:"showOutline"`
	CurrentHeading string            `json:"currentHeading,omitempty"`
}

// reader adds outline navigation to a screen showing rendered content.
type reader struct {
	outline OutlineView
	tracker *position.Tracker
}

func (r *reader) setHeadings(headings []outline.Heading, threshold float64) {
	r.outline = OutlineView{Headings: headings}
	r.tracker = position.NewTracker(headings, threshold)
}

func (r *reader) ToggleOutline() { r.outline.ShowOutline = !r.outline.ShowOutline }
func (r *reader) CloseOutline()  { r.outline.ShowOutline = false }

// ScrollToHeading closes the outline and scrolls to the estimated offset of
// anchor. When no proportional estimate is possible it scrolls to the
// fallback offset and says so.
func (r *reader) ScrollToHeading(ctx context.Context, s host.Surface, anchor string) {
	if anchor == "" || r.tracker == nil {
		return
	}
	r.outline.ShowOutline = false
	height, ok := s.ScrollHeight(ctx)
	if !ok {
		height = 0
	}
	est := r.tracker.Jump(anchor, height)
	s.PageScrollTo(ctx, est.Offset)
	if est.BestEffort {
		host.Toast(ctx, s, MsgMidPage, host.IconNone)
	}
	r.outline.CurrentHeading = r.tracker.Current()
}

// OnScroll updates the current heading from measured heading tops and
// reports whether it changed.
func (r *reader) OnScroll(tops map[string]float64) bool {
	if r.tracker == nil || len(r.outline.Headings) == 0 {
		return false
	}
	if !r.tracker.Observe(tops) {
		return false
	}
	r.outline.CurrentHeading = r.tracker.Current()
	return true
}
