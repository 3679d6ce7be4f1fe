package theory

import (
	"math"
	"testing"

	"github.com/opd-ai/synesthesia/pkg/feature"
)

// TestTempoConvergesToMean verifies the tempo estimate published is the
// running mean of accepted instant_tempo samples, reaching the target BPM
// after enough consistent samples (part of scenario S1's tempo-convergence
// requirement).
func TestTempoConvergesToMean(t *testing.T) {
	a := NewAnalyzer()
	var got Features
	for i := 0; i < 30; i++ {
		got = a.AnalyzeRealtime(feature.Signal{InstantTempo: 120})
	}
	if got.Tempo < 118 || got.Tempo > 122 {
		t.Fatalf("Tempo = %f, want within 2 BPM of 120", got.Tempo)
	}
	if got.TempoConfidence != 0.8 {
		t.Fatalf("TempoConfidence = %f, want 0.8 after >=20 samples", got.TempoConfidence)
	}
}

// TestTempoConfidenceLowBeforeEnoughSamples verifies the 0.3/0.8 threshold.
func TestTempoConfidenceLowBeforeEnoughSamples(t *testing.T) {
	a := NewAnalyzer()
	got := a.AnalyzeRealtime(feature.Signal{InstantTempo: 100})
	if got.TempoConfidence != 0.3 {
		t.Fatalf("TempoConfidence = %f, want 0.3 with <20 samples", got.TempoConfidence)
	}
}

// TestOutOfRangeTempoIsIgnored verifies instant_tempo outside [40,220] is
// not folded into the running estimate.
func TestOutOfRangeTempoIsIgnored(t *testing.T) {
	a := NewAnalyzer()
	before := a.AnalyzeRealtime(feature.Signal{InstantTempo: 0})
	after := a.AnalyzeRealtime(feature.Signal{InstantTempo: 300})
	if before.Tempo != after.Tempo {
		t.Fatalf("out-of-range instant tempo changed the published estimate: %f -> %f", before.Tempo, after.Tempo)
	}
}

// TestModeIsBright verifies the brightness-mode classification table.
func TestModeIsBright(t *testing.T) {
	bright := []Mode{Major, Lydian, Mixolydian}
	dark := []Mode{Minor, Dorian, Phrygian, Aeolian, Locrian}
	for _, m := range bright {
		if !m.IsBright() {
			t.Errorf("%v should be bright", m)
		}
	}
	for _, m := range dark {
		if m.IsBright() {
			t.Errorf("%v should not be bright", m)
		}
	}
}

// TestDetectsExpectedBeatCountOnSyntheticTone drives the real
// feature.Extractor (not synthetic Signal values) with a 10s, 120 BPM tone
// built from brief amplitude spikes on a quiet carrier, one per beat, and
// checks both that the detector finds a beat count consistent with 120 BPM
// and that the instantaneous tempos it reports feed the rolling estimate
// toward 120 well before the track ends.
func TestDetectsExpectedBeatCountOnSyntheticTone(t *testing.T) {
	const (
		sampleRate  = 8192
		chunkSize   = 256 // 31.25ms/chunk
		cycleChunks = 16  // 16*31.25ms = 500ms = one beat at 120 BPM
		numChunks   = 320 // 320*31.25ms = 10s
		toneFreq    = 300.0
		quietAmp    = 0.05
		spikeAmp    = 0.9
	)

	ext := feature.NewExtractor(sampleRate, chunkSize)
	an := NewAnalyzer()

	beats := 0
	var instantTempos []float64
	var tempoAtTwoSec float64
	sawTwoSec := false

	for c := 0; c < numChunks; c++ {
		amp := quietAmp
		if c%cycleChunks == 0 {
			amp = spikeAmp
		}
		samples := make([]float32, chunkSize)
		for i := 0; i < chunkSize; i++ {
			tSample := float64(c*chunkSize+i) / float64(sampleRate)
			samples[i] = float32(amp * math.Sin(2*math.Pi*toneFreq*tSample))
		}
		tChunk := float64(c*chunkSize) / float64(sampleRate)

		sig := ext.Extract(samples, tChunk)
		if sig.IsBeat {
			beats++
		}
		if sig.InstantTempo > 0 {
			instantTempos = append(instantTempos, sig.InstantTempo)
		}

		feat := an.AnalyzeRealtime(sig)
		if !sawTwoSec && tChunk >= 2.0 {
			tempoAtTwoSec = feat.Tempo
			sawTwoSec = true
		}
	}

	if beats < 18 || beats > 22 {
		t.Errorf("detected %d beats over 10s at 120 BPM, want between 18 and 22", beats)
	}
	if len(instantTempos) == 0 {
		t.Fatalf("extractor never reported an instantaneous tempo")
	}
	var sum float64
	for _, bpm := range instantTempos {
		sum += bpm
	}
	meanInstant := sum / float64(len(instantTempos))
	if math.Abs(meanInstant-120) > 2 {
		t.Errorf("mean instantaneous tempo = %f, want within 2 BPM of 120", meanInstant)
	}
	if math.Abs(tempoAtTwoSec-120) > 2 {
		t.Errorf("rolling tempo estimate at the 2s mark = %f, want within 2 BPM of 120", tempoAtTwoSec)
	}
}

// TestChordTensionOrdering sanity-checks the consonance ordering used by
// world generation's decoration hue rule.
func TestChordTensionOrdering(t *testing.T) {
	if ChordMajor.Tension() >= ChordDim.Tension() {
		t.Fatalf("major chord should be less tense than diminished")
	}
}
