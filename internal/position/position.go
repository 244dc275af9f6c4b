// Package position estimates reading positions inside rendered rich content.
//
// The host does not scroll reliably to anchors inside rendered content, so a
// heading's offset is estimated from its index in the outline, assuming
// headings are spread evenly over the scrollable height. Mismatches against the
// real layout under fast scrolling are expected.
package position

import (
	"sync"

	"github.com/dgallion1/rssmd/internal/outline"
)

// FallbackOffset is the offset used when no proportional estimate is possible.
const FallbackOffset = 500

// DefaultThreshold is the top offset at or above which a heading counts as current.
const DefaultThreshold = 150

// Estimate is the outcome of EstimateScrollTarget.
type Estimate struct {
	Offset int `json:"offset"`
	// BestEffort is set when Offset is FallbackOffset rather than a proportional
	// estimate; callers tell the user the jump is approximate.
	BestEffort bool `json:"best_effort"`
}

// EstimateScrollTarget returns floor(index/len * totalScrollHeight) for anchor.
// An unknown anchor or a non-positive height yields FallbackOffset.
func EstimateScrollTarget(headings []outline.Heading, anchor string, totalScrollHeight int) Estimate {
	idx := outline.IndexOf(headings, anchor)
	if idx < 0 || totalScrollHeight <= 0 {
		return Estimate{Offset: FallbackOffset, BestEffort: true}
	}
	return Estimate{Offset: idx * totalScrollHeight / len(headings)}
}

// CurrentHeading scans headings from the end and returns the first anchor whose
// measured top is <= threshold. Headings without a measurement are skipped.
func CurrentHeading(headings []outline.Heading, threshold float64, tops map[string]float64) (string, bool) {
	if len(tops) == 0 {
		return "", false
	}
	for i := len(headings) - 1; i >= 0; i-- {
		top, ok := tops[headings[i].Anchor]
		if ok && top <= threshold {
			return headings[i].Anchor, true
		}
	}
	return "", false
}

// Tracker holds the current heading of one reader view.
type Tracker struct {
	mu        sync.Mutex
	headings  []outline.Heading
	threshold float64
	current   string
}

func NewTracker(headings []outline.Heading, threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{headings: headings, threshold: threshold}
}

// Jump estimates the offset for anchor and, when the anchor is known, marks it current.
func (t *Tracker) Jump(anchor string, totalScrollHeight int) Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	est := EstimateScrollTarget(t.headings, anchor, totalScrollHeight)
	if outline.IndexOf(t.headings, anchor) >= 0 && !est.BestEffort {
		t.current = anchor
	}
	return est
}

// Observe updates the current heading from fresh measurements and reports
// whether it changed.
func (t *Tracker) Observe(tops map[string]float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	anchor, ok := CurrentHeading(t.headings, t.threshold, tops)
	if !ok || anchor == t.current {
		return false
	}
	t.current = anchor
	return true
}

// Current returns the current anchor, empty if none.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
