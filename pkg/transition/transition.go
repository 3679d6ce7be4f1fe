// Package transition implements the transition engine: a sorted schedule of
// segment-to-segment transitions, with active-transition lookup, progress
// calculation, and current-segment advancement.
package transition

import "sort"

// Kind is the transition's visual treatment.
type Kind int

const (
	Cut Kind = iota
	Crossfade
	Morph
	FlashReveal
)

// ShaderID returns the integer shader-selector id forwarded in
// ShaderUniforms for this kind.
func (k Kind) ShaderID() int32 {
	return int32(k)
}

// Transition is a single scheduled segment change.
type Transition struct {
	Time        float64
	FromSegment uint32
	ToSegment   uint32
	Kind        Kind
	Duration    float64
}

// Active describes the in-progress transition at a queried instant.
type Active struct {
	Transition Transition
	Progress   float64 // [0, 1)
}

// Engine holds a sorted transition schedule and the currently active
// segment, advancing it only when an active transition completes.
type Engine struct {
	schedule       []Transition
	currentSegment uint32
}

// NewEngine builds an Engine from a schedule; it is sorted by Time on
// construction if not already sorted.
func NewEngine(schedule []Transition, initialSegment uint32) *Engine {
	cp := make([]Transition, len(schedule))
	copy(cp, schedule)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Time < cp[j].Time })
	return &Engine{schedule: cp, currentSegment: initialSegment}
}

// CurrentSegment returns the segment id active at the last Update call, or
// the initial segment before any Update.
func (e *Engine) CurrentSegment() uint32 { return e.currentSegment }

// ActiveAt returns the transition active at time t, if any. A transition is
// active iff t ∈ [transition.time, transition.time+duration); a
// zero-duration transition is active only when t equals transition.time.
func (e *Engine) ActiveAt(t float64) (Active, bool) {
	for _, tr := range e.schedule {
		if tr.Duration <= 0 {
			if t == tr.Time {
				return Active{Transition: tr, Progress: 0}, true
			}
			continue
		}
		if t >= tr.Time && t < tr.Time+tr.Duration {
			progress := (t - tr.Time) / tr.Duration
			return Active{Transition: tr, Progress: progress}, true
		}
	}
	return Active{}, false
}

// Update advances CurrentSegment to ToSegment for any transition that has
// fully completed at or before t, then returns the transition active at t
// (if any). Call once per frame with monotonically increasing t for
// correct segment advancement.
func (e *Engine) Update(t float64) (Active, bool) {
	for _, tr := range e.schedule {
		end := tr.Time + tr.Duration
		if t >= end {
			e.currentSegment = tr.ToSegment
		}
	}
	return e.ActiveAt(t)
}

// ParseKind maps a SynthFile transition-type string to a Kind, defaulting
// to Cut for anything unrecognized.
func ParseKind(s string) Kind {
	switch s {
	case "Crossfade":
		return Crossfade
	case "Morph":
		return Morph
	case "FlashReveal":
		return FlashReveal
	default:
		return Cut
	}
}
