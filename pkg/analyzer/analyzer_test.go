package analyzer

import (
	"testing"

	"github.com/opd-ai/synesthesia/pkg/feature"
	"github.com/opd-ai/synesthesia/pkg/structure"
	"github.com/opd-ai/synesthesia/pkg/synthfile"
)

func fileWithClimaxAndSections() synthfile.File {
	return synthfile.File{
		Analysis: synthfile.MusicAnalysis{
			AudioHash:     "abc",
			Key:           "D",
			Mode:          "minor",
			KeyConfidence: 0.95,
			Sections: []synthfile.Section{
				{Type: "Verse", Start: 0, End: 3, Energy: 0.4, Repetition: 1, Confidence: 0.9},
				{Type: "Chorus", Start: 3, End: 6, Energy: 0.9, Repetition: 1, Confidence: 0.9},
			},
			Climaxes: []synthfile.ClimaxPoint{{Time: 3.0, Intensity: 0.9, Type: "drop"}},
		},
	}
}

// TestClimaxGateScenario reproduces scenario S5: a climax at t=3.0 with
// default tolerance 0.5s reads true at t=3.1 and false at t=4.0.
func TestClimaxGateScenario(t *testing.T) {
	a := NewAnalyzer()
	a.Attach(fileWithClimaxAndSections())

	got := a.Analyze(feature.Signal{T: 3.1})
	if !got.IsClimax {
		t.Fatalf("IsClimax at t=3.1 = false, want true")
	}

	got = a.Analyze(feature.Signal{T: 4.0})
	if got.IsClimax {
		t.Fatalf("IsClimax at t=4.0 = true, want false")
	}
}

// TestSynthFileOverridesKey verifies the stored key/mode/key_confidence
// override the live estimate once a SynthFile is attached.
func TestSynthFileOverridesKey(t *testing.T) {
	a := NewAnalyzer()
	a.Attach(fileWithClimaxAndSections())

	got := a.Analyze(feature.Signal{T: 1.0, SpectralCentroid: 0.9})
	if got.Theory.Key != keyNames["d"] {
		t.Fatalf("Key = %v, want D", got.Theory.Key)
	}
	if got.Theory.KeyConfidence != 0.95 {
		t.Fatalf("KeyConfidence = %f, want 0.95", got.Theory.KeyConfidence)
	}
}

// TestLiveOnlyFallbackWithoutSynthFile verifies the analyzer runs without
// a SynthFile attached and does not error.
func TestLiveOnlyFallbackWithoutSynthFile(t *testing.T) {
	a := NewAnalyzer()
	got := a.Analyze(feature.Signal{T: 1.0, SpectralCentroid: 0.9, RMS: 0.5})
	if got.Section.Type != structure.Unknown {
		t.Fatalf("Section.Type = %v, want Unknown with no SynthFile", got.Section.Type)
	}
	if a.HasSynthFile() {
		t.Fatalf("HasSynthFile() = true, want false")
	}
}

// TestCorruptedSynthFileDegradesLiveOnly verifies LoadSynthFile on bad data
// returns an error without leaving the analyzer in a broken state.
func TestCorruptedSynthFileDegradesLiveOnly(t *testing.T) {
	a := NewAnalyzer()
	err := a.LoadSynthFile([]byte("not a synth file"))
	if err == nil {
		t.Fatalf("LoadSynthFile() error = nil, want error for corrupt data")
	}
	if a.HasSynthFile() {
		t.Fatalf("HasSynthFile() = true after failed load")
	}
	got := a.Analyze(feature.Signal{T: 1.0})
	if got.IsClimax {
		t.Fatalf("IsClimax = true with no attached file")
	}
}

// TestSectionProgressAndRepetition verifies structure lookup via the
// attached timeline.
func TestSectionProgressAndRepetition(t *testing.T) {
	a := NewAnalyzer()
	a.Attach(fileWithClimaxAndSections())

	got := a.Analyze(feature.Signal{T: 4.5})
	if got.Section.Type != structure.Chorus {
		t.Fatalf("Section.Type = %v, want Chorus", got.Section.Type)
	}
	if got.SectionProgress < 0.4 || got.SectionProgress > 0.6 {
		t.Fatalf("SectionProgress = %f, want ~0.5", got.SectionProgress)
	}
	if got.Section.Repetition != 1 {
		t.Fatalf("Section.Repetition = %d, want 1", got.Section.Repetition)
	}
}
