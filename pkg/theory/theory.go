// Package theory implements the music analyzer's harmonic layer: a rolling
// key estimate and a running tempo estimate built on top of the per-chunk
// signal features from pkg/feature.
package theory

import (
	"github.com/opd-ai/synesthesia/pkg/feature"
	"github.com/sirupsen/logrus"
)

// Key is a musical pitch class, or Unknown when undetected.
type Key int

const (
	C Key = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
	Unknown
)

// Mode is the scale quality a Key is interpreted in.
type Mode int

const (
	Major Mode = iota
	Minor
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Aeolian
	Locrian
)

// IsBright reports whether mode reads as tonally "happy" — used by C6's
// material rules (metallic ~ is_bright(mode)).
func (m Mode) IsBright() bool {
	return m == Major || m == Lydian || m == Mixolydian
}

// ChordType is the harmonic quality of a Chord.
type ChordType int

const (
	ChordMajor ChordType = iota
	ChordMinor
	ChordDim
	ChordAug
	ChordDom7
	ChordMaj7
	ChordMin7
	ChordSus2
	ChordSus4
	ChordPower
)

// tensionTable mirrors original_source/synesthesia/src/music/theory.rs's
// Chord::tension.
var tensionTable = map[ChordType]float64{
	ChordMajor: 0.0,
	ChordMinor: 0.1,
	ChordPower: 0.05,
	ChordSus2:  0.2,
	ChordSus4:  0.25,
	ChordMaj7:  0.15,
	ChordDom7:  0.4,
	ChordMin7:  0.3,
	ChordDim:   0.7,
	ChordAug:   0.6,
}

// Tension returns the chord's harmonic tension in [0,1] (0 = consonant).
func (c ChordType) Tension() float64 {
	return tensionTable[c]
}

// Chord is a detected or overridden harmonic event.
type Chord struct {
	Root       Key
	Type       ChordType
	Confidence float64
}

// Features is the harmonic/rhythmic reading for one analysis tick.
type Features struct {
	Key              Key
	Mode             Mode
	KeyConfidence    float64
	Chord            Chord
	ChordTension     float64
	Tempo            float64
	TempoConfidence  float64
	TempoDerivative  float64
	TimbreBrightness float64
	TimbreRoughness  float64
}

const tempoHistoryCap = 100

// Analyzer holds the rolling key/tempo state across analysis ticks. The
// zero value is not usable; construct with NewAnalyzer.
type Analyzer struct {
	tempoHistory []float64
	tempoSum     float64
	lastTempo    float64
	logger       *logrus.Entry
}

// NewAnalyzer creates a theory Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		tempoHistory: make([]float64, 0, tempoHistoryCap),
		lastTempo:    120,
		logger:       logrus.WithField("component", "theory"),
	}
}

// AnalyzeRealtime computes Features from the live signal: accepts
// instant_tempo in [40,220] into a bounded history and publishes its mean;
// tempo confidence reaches 0.8 once 20 samples are present, else 0.3; mode
// is a brightness heuristic (Major if centroid/5000 > 0.5 else Minor).
func (a *Analyzer) AnalyzeRealtime(sig feature.Signal) Features {
	if sig.InstantTempo >= 40 && sig.InstantTempo <= 220 {
		a.pushTempo(sig.InstantTempo)
	}

	tempo := a.lastTempo
	if len(a.tempoHistory) > 0 {
		tempo = a.tempoSum / float64(len(a.tempoHistory))
	}

	confidence := 0.3
	if len(a.tempoHistory) >= 20 {
		confidence = 0.8
	}

	brightness := sig.SpectralCentroid / 5000.0
	if brightness > 1 {
		brightness = 1
	}
	mode := Minor
	if brightness > 0.5 {
		mode = Major
	}

	a.lastTempo = tempo
	return Features{
		Key:              Unknown,
		Mode:             mode,
		KeyConfidence:    0,
		Chord:            Chord{},
		ChordTension:     sig.SpectralFlux,
		Tempo:            tempo,
		TempoConfidence:  confidence,
		TempoDerivative:  0,
		TimbreBrightness: clamp01(brightness),
		TimbreRoughness:  clamp01(sig.ZeroCrossingRate),
	}
}

func (a *Analyzer) pushTempo(bpm float64) {
	a.tempoHistory = append(a.tempoHistory, bpm)
	a.tempoSum += bpm
	if len(a.tempoHistory) > tempoHistoryCap {
		a.tempoSum -= a.tempoHistory[0]
		a.tempoHistory = a.tempoHistory[1:]
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
