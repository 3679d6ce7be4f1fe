package transition

import "testing"

func sampleSchedule() []Transition {
	return []Transition{
		{Time: 5.0, FromSegment: 1, ToSegment: 2, Kind: Crossfade, Duration: 2.0},
		{Time: 10.0, FromSegment: 2, ToSegment: 3, Kind: Cut, Duration: 0},
	}
}

// TestActiveWindow verifies the half-open [time, time+duration) active
// window.
func TestActiveWindow(t *testing.T) {
	e := NewEngine(sampleSchedule(), 1)

	if _, ok := e.ActiveAt(4.9); ok {
		t.Fatalf("ActiveAt(4.9) = active, want none")
	}
	active, ok := e.ActiveAt(5.0)
	if !ok {
		t.Fatalf("ActiveAt(5.0) = none, want active")
	}
	if active.Progress != 0 {
		t.Fatalf("Progress at transition start = %f, want 0", active.Progress)
	}
	active, ok = e.ActiveAt(6.0)
	if !ok || active.Progress < 0.49 || active.Progress > 0.51 {
		t.Fatalf("ActiveAt(6.0) progress = %+v, want ~0.5", active)
	}
	if _, ok := e.ActiveAt(7.0); ok {
		t.Fatalf("ActiveAt(7.0) = active, want transition complete (half-open window excludes end)")
	}
}

// TestCurrentSegmentAdvancesOnCompletion verifies current_segment only
// advances once a transition's window has fully elapsed.
func TestCurrentSegmentAdvancesOnCompletion(t *testing.T) {
	e := NewEngine(sampleSchedule(), 1)

	e.Update(6.0)
	if e.CurrentSegment() != 1 {
		t.Fatalf("CurrentSegment mid-transition = %d, want unchanged 1", e.CurrentSegment())
	}
	e.Update(7.0)
	if e.CurrentSegment() != 2 {
		t.Fatalf("CurrentSegment after completion = %d, want 2", e.CurrentSegment())
	}
	e.Update(10.0)
	if e.CurrentSegment() != 3 {
		t.Fatalf("CurrentSegment after zero-duration cut = %d, want 3", e.CurrentSegment())
	}
}

// TestZeroDurationCutIsInstantaneous verifies a Duration=0 transition is
// active only exactly at its scheduled time.
func TestZeroDurationCutIsInstantaneous(t *testing.T) {
	e := NewEngine(sampleSchedule(), 2)
	active, ok := e.ActiveAt(10.0)
	if !ok || active.Transition.Kind != Cut {
		t.Fatalf("ActiveAt(10.0) = %+v, want active Cut", active)
	}
	if _, ok := e.ActiveAt(10.001); ok {
		t.Fatalf("ActiveAt(10.001) = active, want none for zero-duration cut")
	}
}

// TestParseKindDefaultsToCut verifies unrecognized type strings fall back.
func TestParseKindDefaultsToCut(t *testing.T) {
	if ParseKind("Unknown") != Cut {
		t.Fatalf("ParseKind(unknown) should default to Cut")
	}
	if ParseKind("FlashReveal") != FlashReveal {
		t.Fatalf("ParseKind(FlashReveal) mismatch")
	}
}

// TestShaderIDsAreDistinct verifies every kind maps to a unique shader id.
func TestShaderIDsAreDistinct(t *testing.T) {
	seen := map[int32]bool{}
	for _, k := range []Kind{Cut, Crossfade, Morph, FlashReveal} {
		id := k.ShaderID()
		if seen[id] {
			t.Errorf("duplicate shader id %d for kind %v", id, k)
		}
		seen[id] = true
	}
}
