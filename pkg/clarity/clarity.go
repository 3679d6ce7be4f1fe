// Package clarity implements the revelation/clarity engine: a monotonic
// scalar accumulator tracking how much musical evidence has been integrated
// over time, plus a four-channel breakdown and the discrete ClarityLevel
// stages that drive the "emergence" shader family.
package clarity

import "github.com/sirupsen/logrus"

const (
	baseRate            = 0.02
	beatBonus           = 0.05
	beatIntensityGate   = 0.5
	sectionBonus        = 0.03
	sectionProgressGate = 0.1

	resetTimeThreshold = 0.1 // seconds; seeking below this resets clarity to 0
)

// Breakdown is the per-channel clarity contribution.
type Breakdown struct {
	Signal    float64
	Theory    float64
	Structure float64
	Emotion   float64
}

// Total derives the aggregate clarity from the breakdown channels. It is not
// itself the accumulated value — Accumulator tracks Total() directly via its
// own integration — but is exposed for callers that want a pure function of
// the channel mix.
func (b Breakdown) Total() float64 {
	total := (b.Signal + b.Theory + b.Structure + b.Emotion) / 4.0
	return clamp01(total)
}

// Level is one of the five discrete revelation stages.
type Level int

const (
	Abstract Level = iota
	Emerging
	Forming
	Clarifying
	Revealed
)

// String renders the level name.
func (l Level) String() string {
	switch l {
	case Abstract:
		return "Abstract"
	case Emerging:
		return "Emerging"
	case Forming:
		return "Forming"
	case Clarifying:
		return "Clarifying"
	case Revealed:
		return "Revealed"
	default:
		return "Unknown"
	}
}

// LevelFromValue maps a scalar clarity to its discrete level using fixed
// bucket boundaries.
func LevelFromValue(clarity float64) Level {
	switch {
	case clarity < 0.15:
		return Abstract
	case clarity < 0.35:
		return Emerging
	case clarity < 0.55:
		return Forming
	case clarity < 0.80:
		return Clarifying
	default:
		return Revealed
	}
}

// noiseLevel and guidanceScale are grounded on
// original_source/synesthesia/src/revelation/clarity.rs's ClarityLevel
// tables.
var noiseLevel = map[Level]float64{
	Abstract:   0.95,
	Emerging:   0.70,
	Forming:    0.45,
	Clarifying: 0.20,
	Revealed:   0.05,
}

var guidanceScale = map[Level]float64{
	Abstract:   3.0,
	Emerging:   5.0,
	Forming:    8.0,
	Clarifying: 12.0,
	Revealed:   15.0,
}

// NoiseLevel returns the published noise level for l.
func (l Level) NoiseLevel() float64 { return noiseLevel[l] }

// GuidanceScale returns the published guidance scale for l.
func (l Level) GuidanceScale() float64 { return guidanceScale[l] }

// Evidence is the instantaneous input the accumulator integrates each frame.
type Evidence struct {
	BeatIntensity    float64
	SectionProgress  float64
	TheoryConfidence float64
	StructureKnown   bool // a SynthFile-backed section lookup succeeded this frame
	EmotionIntensity float64
}

// Accumulator integrates evidence across time into a scalar clarity and a
// four-channel breakdown. Total is nondecreasing during uninterrupted
// playback; it resets only when track time jumps backward past
// resetTimeThreshold.
type Accumulator struct {
	total     float64
	breakdown Breakdown
	lastTime  float64
	haveTime  bool
	logger    *logrus.Entry

	// SmoothingPole configures the exponential-smoothing rate applied to
	// each breakdown channel, in [0.2, 0.8]. 0.5 by default.
	SmoothingPole float64
}

// NewAccumulator creates a clarity Accumulator with default smoothing.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		SmoothingPole: 0.5,
		logger:        logrus.WithField("component", "clarity"),
	}
}

// Update advances the accumulator by dt seconds at track time t, given this
// frame's Evidence. Returns the updated total clarity and breakdown.
func (a *Accumulator) Update(t, dt float64, ev Evidence) (float64, Breakdown) {
	if a.haveTime && t < resetTimeThreshold && a.lastTime >= resetTimeThreshold {
		a.reset()
		a.lastTime = t
		return a.total, a.breakdown
	}
	a.lastTime = t
	a.haveTime = true

	rate := baseRate
	if ev.BeatIntensity > beatIntensityGate {
		rate += beatBonus
	}
	if ev.SectionProgress < sectionProgressGate {
		rate += sectionBonus
	}
	a.total = clamp01(a.total + rate*dt)

	pole := a.SmoothingPole
	if pole <= 0 {
		pole = 0.5
	}
	alpha := clamp01(pole * dt)

	signalTarget := clamp01(0.5 + ev.BeatIntensity*0.5)
	theoryTarget := clamp01(ev.TheoryConfidence)
	structureTarget := 0.2
	if ev.StructureKnown {
		structureTarget = 1.0
	}
	emotionTarget := clamp01(ev.EmotionIntensity)

	a.breakdown.Signal = lerp(a.breakdown.Signal, signalTarget, alpha)
	a.breakdown.Theory = lerp(a.breakdown.Theory, theoryTarget, alpha)
	a.breakdown.Structure = lerp(a.breakdown.Structure, structureTarget, alpha)
	a.breakdown.Emotion = lerp(a.breakdown.Emotion, emotionTarget, alpha)

	return a.total, a.breakdown
}

// Total returns the last computed aggregate clarity without advancing.
func (a *Accumulator) Total() float64 { return a.total }

// Breakdown returns the last computed per-channel breakdown without advancing.
func (a *Accumulator) Breakdown() Breakdown { return a.breakdown }

func (a *Accumulator) reset() {
	a.logger.Debug("track time jumped to head, resetting clarity")
	a.total = 0
	a.breakdown = Breakdown{}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
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
