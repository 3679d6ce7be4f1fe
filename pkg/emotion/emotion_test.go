package emotion

import "testing"

// TestToHSLKnownCategory checks a handful of fixed mappings.
func TestToHSLKnownCategory(t *testing.T) {
	h, s, l := ToHSL(Joy)
	if h != 45.0 || s != 0.85 || l != 0.6 {
		t.Fatalf("ToHSL(Joy) = (%f,%f,%f), want (45,0.85,0.6)", h, s, l)
	}
}

// TestToHSLUnknownFallsBackToNeutral guards against a panic/zero-value on
// an out-of-range category.
func TestToHSLUnknownFallsBackToNeutral(t *testing.T) {
	h, s, l := ToHSL(Category(999))
	wantH, wantS, wantL := ToHSL(Neutral)
	if h != wantH || s != wantS || l != wantL {
		t.Fatalf("unknown category did not fall back to Neutral mapping")
	}
}

// TestDeriveFromSignalBounds verifies the live fallback stays within the
// documented ranges regardless of input extremes.
func TestDeriveFromSignalBounds(t *testing.T) {
	cases := []struct{ centroid, rms, beat float64 }{
		{0, 0, 0},
		{1, 1, 1},
		{0.5, 0.5, 0.5},
		{-5, 10, -3},
	}
	for _, c := range cases {
		st := DeriveFromSignal(c.centroid, c.rms, c.beat)
		if st.Valence < -1 || st.Valence > 1 {
			t.Errorf("Valence out of range: %f", st.Valence)
		}
		if st.Arousal < 0 || st.Arousal > 1 {
			t.Errorf("Arousal out of range: %f", st.Arousal)
		}
		if st.Intensity < 0 || st.Intensity > 1 {
			t.Errorf("Intensity out of range: %f", st.Intensity)
		}
	}
}
