// Package structure models song structural segmentation: section types and
// the offline timeline lookup used by the music analyzer's structure layer.
// Live structural detection is out of scope here: sections only come from a
// loaded analysis timeline.
package structure

import "sort"

// Type is a structural role a Section plays in the track.
type Type int

const (
	Unknown Type = iota
	Intro
	Verse
	PreChorus
	Chorus
	Bridge
	Breakdown
	Buildup
	Drop
	Outro
	Instrumental
)

// String renders the section type for logging and UI.
func (t Type) String() string {
	switch t {
	case Intro:
		return "Intro"
	case Verse:
		return "Verse"
	case PreChorus:
		return "PreChorus"
	case Chorus:
		return "Chorus"
	case Bridge:
		return "Bridge"
	case Breakdown:
		return "Breakdown"
	case Buildup:
		return "Buildup"
	case Drop:
		return "Drop"
	case Outro:
		return "Outro"
	case Instrumental:
		return "Instrumental"
	default:
		return "Unknown"
	}
}

// Section is a contiguous, densely covering interval of a track labeled with
// a structural role.
type Section struct {
	Type       Type
	StartTime  float64
	EndTime    float64
	Energy     float64
	Repetition int
	Confidence float64
}

// Duration returns the section's length in seconds.
func (s Section) Duration() float64 {
	return s.EndTime - s.StartTime
}

// ProgressAt returns s's progress at time, clamped to [0,1].
func (s Section) ProgressAt(time float64) float64 {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	p := (time - s.StartTime) / d
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Timeline is a sorted, densely covering sequence of Sections, the offline
// product loaded from a SynthFile. It supports O(log n) lookup by time via
// binary search.
type Timeline struct {
	sections []Section
}

// NewTimeline builds a Timeline from sections already sorted by StartTime.
// Sections must cover [0, duration] densely; NewTimeline does not itself
// validate this, and pkg/synthfile's load checks only that sections are
// ordered by start time, so gaps or overlaps are not detected.
func NewTimeline(sections []Section) *Timeline {
	cp := make([]Section, len(sections))
	copy(cp, sections)
	return &Timeline{sections: cp}
}

// Sections returns the underlying section slice; callers must not mutate it.
func (tl *Timeline) Sections() []Section {
	return tl.sections
}

// IndexAt returns the index of the section containing time via binary
// search over section end times, or the last section's index when time is
// at or past the end of the timeline.
func (tl *Timeline) IndexAt(time float64) int {
	if len(tl.sections) == 0 {
		return -1
	}
	i := sort.Search(len(tl.sections), func(i int) bool {
		return tl.sections[i].EndTime > time
	})
	if i >= len(tl.sections) {
		return len(tl.sections) - 1
	}
	return i
}

// SectionAt returns the Section containing time, or the zero Section if the
// timeline is empty.
func (tl *Timeline) SectionAt(time float64) Section {
	idx := tl.IndexAt(time)
	if idx < 0 {
		return Section{}
	}
	return tl.sections[idx]
}

// RepetitionAt returns the 1-based count of sections of the same type as the
// section at time, counted over the prefix of the timeline through that
// section's index — a monotonically increasing counter per type across the
// sequence.
func (tl *Timeline) RepetitionAt(time float64) int {
	idx := tl.IndexAt(time)
	if idx < 0 {
		return 0
	}
	target := tl.sections[idx].Type
	count := 0
	for i := 0; i <= idx; i++ {
		if tl.sections[i].Type == target {
			count++
		}
	}
	return count
}

// Duration returns the end time of the last section, or 0 if empty.
func (tl *Timeline) Duration() float64 {
	if len(tl.sections) == 0 {
		return 0
	}
	return tl.sections[len(tl.sections)-1].EndTime
}
