// Package analyzer implements the music analyzer: the layered state machine
// that combines live signal features, rolling theory estimates, an optional
// offline structure/emotion timeline, and the climax gate into a single
// MusicUnderstanding reading per instant.
package analyzer

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/synesthesia/pkg/emotion"
	"github.com/opd-ai/synesthesia/pkg/feature"
	"github.com/opd-ai/synesthesia/pkg/structure"
	"github.com/opd-ai/synesthesia/pkg/synthfile"
	"github.com/opd-ai/synesthesia/pkg/theory"
)

// DefaultClimaxTolerance is the default ± window within which a frame is
// considered to coincide with an annotated climax point.
const DefaultClimaxTolerance = 0.5

// Understanding is the MusicUnderstanding composite: a single-instant
// reading combining all four analyzer layers.
type Understanding struct {
	Signal          feature.Signal
	Theory          theory.Features
	Section         structure.Section
	SectionProgress float64
	IsClimax        bool
	Emotion         emotion.State
}

// Analyzer is C3: it owns the rolling theory state and an optional
// immutable offline artifact, and derives Understanding from each chunk's
// live Signal.
type Analyzer struct {
	theory *theory.Analyzer

	hasFile   bool
	file      synthfile.File
	timeline  *structure.Timeline
	emotions  []synthfile.EmotionPoint
	climaxes  []synthfile.ClimaxPoint

	fixedKey     theory.Key
	fixedMode    theory.Mode
	fixedKeyConf float64
	hasFixedKey  bool

	ClimaxTolerance float64

	logger *logrus.Entry
}

// NewAnalyzer creates a live-only Analyzer. Call LoadSynthFile to attach an
// offline artifact.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		theory:          theory.NewAnalyzer(),
		ClimaxTolerance: DefaultClimaxTolerance,
		logger:          logrus.WithField("component", "analyzer"),
	}
}

// LoadSynthFile attaches an offline artifact's structure, emotion arc, and
// key/mode override. A read/validation failure is returned to the caller and
// leaves the analyzer in live-only mode.
func (a *Analyzer) LoadSynthFile(data []byte) error {
	f, err := synthfile.Load(data)
	if err != nil {
		a.logger.WithError(err).Warn("synthfile load failed, continuing live-only")
		return err
	}
	a.attach(f)
	return nil
}

// Attach installs an already-decoded File directly, bypassing Load. Useful
// when the engine facade owns file I/O itself.
func (a *Analyzer) Attach(f synthfile.File) {
	a.attach(f)
}

func (a *Analyzer) attach(f synthfile.File) {
	a.hasFile = true
	a.file = f

	sections := make([]structure.Section, len(f.Analysis.Sections))
	for i, s := range f.Analysis.Sections {
		sections[i] = structure.Section{
			Type:       parseSectionType(s.Type),
			StartTime:  s.Start,
			EndTime:    s.End,
			Energy:     float64(s.Energy),
			Repetition: int(s.Repetition),
			Confidence: float64(s.Confidence),
		}
	}
	a.timeline = structure.NewTimeline(sections)
	a.emotions = f.Analysis.EmotionArc
	a.climaxes = f.Analysis.Climaxes

	if key, ok := parseKey(f.Analysis.Key); ok {
		a.fixedKey = key
		a.fixedMode = parseMode(f.Analysis.Mode)
		a.fixedKeyConf = float64(f.Analysis.KeyConfidence)
		a.hasFixedKey = true
	}

	a.logger.WithFields(logrus.Fields{
		"audio_hash": f.Analysis.AudioHash,
		"sections":   len(sections),
	}).Info("attached synthfile to analyzer")
}

// HasSynthFile reports whether an offline artifact is attached.
func (a *Analyzer) HasSynthFile() bool { return a.hasFile }

// Analyze derives Understanding at sig.T from the live signal, folding in
// any attached offline artifact.
func (a *Analyzer) Analyze(sig feature.Signal) Understanding {
	t := sig.T

	th := a.theory.AnalyzeRealtime(sig)
	if a.hasFixedKey {
		th.Key = a.fixedKey
		th.Mode = a.fixedMode
		th.KeyConfidence = a.fixedKeyConf
	}

	var section structure.Section
	var progress float64
	if a.timeline != nil {
		section = a.timeline.SectionAt(t)
		section.Repetition = a.timeline.RepetitionAt(t)
		progress = section.ProgressAt(t)
	}

	em := a.emotionAt(t, sig)

	return Understanding{
		Signal:          sig,
		Theory:          th,
		Section:         section,
		SectionProgress: progress,
		IsClimax:        a.isClimax(t),
		Emotion:         em,
	}
}

func (a *Analyzer) emotionAt(t float64, sig feature.Signal) emotion.State {
	if pt, ok := emotionPointAt(a.emotions, t); ok {
		return emotion.State{
			Category:  parseEmotionCategory(pt.Emotion),
			Valence:   float64(pt.Valence),
			Arousal:   float64(pt.Arousal),
			Intensity: float64(pt.Intensity),
		}
	}
	return emotion.DeriveFromSignal(sig.SpectralCentroid, sig.RMS, sig.BeatIntensity)
}

// emotionPointAt returns the last point at or before t, the emotion arc's
// sample-and-hold lookup rule.
func emotionPointAt(points []synthfile.EmotionPoint, t float64) (synthfile.EmotionPoint, bool) {
	var best synthfile.EmotionPoint
	found := false
	for _, p := range points {
		if p.Time <= t {
			best = p
			found = true
			continue
		}
		break
	}
	return best, found
}

func (a *Analyzer) isClimax(t float64) bool {
	tol := a.ClimaxTolerance
	if tol <= 0 {
		tol = DefaultClimaxTolerance
	}
	for _, c := range a.climaxes {
		if t >= c.Time-tol && t <= c.Time+tol {
			return true
		}
	}
	return false
}

func parseSectionType(s string) structure.Type {
	switch strings.ToLower(s) {
	case "intro":
		return structure.Intro
	case "verse":
		return structure.Verse
	case "prechorus":
		return structure.PreChorus
	case "chorus":
		return structure.Chorus
	case "bridge":
		return structure.Bridge
	case "breakdown":
		return structure.Breakdown
	case "buildup":
		return structure.Buildup
	case "drop":
		return structure.Drop
	case "outro":
		return structure.Outro
	case "instrumental":
		return structure.Instrumental
	default:
		return structure.Unknown
	}
}

var keyNames = map[string]theory.Key{
	"c": theory.C, "c#": theory.Cs, "cs": theory.Cs,
	"d": theory.D, "d#": theory.Ds, "ds": theory.Ds,
	"e": theory.E,
	"f": theory.F, "f#": theory.Fs, "fs": theory.Fs,
	"g": theory.G, "g#": theory.Gs, "gs": theory.Gs,
	"a": theory.A, "a#": theory.As, "as": theory.As,
	"b": theory.B,
}

func parseKey(s string) (theory.Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

func parseMode(s string) theory.Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor":
		return theory.Minor
	case "dorian":
		return theory.Dorian
	case "phrygian":
		return theory.Phrygian
	case "lydian":
		return theory.Lydian
	case "mixolydian":
		return theory.Mixolydian
	case "aeolian":
		return theory.Aeolian
	case "locrian":
		return theory.Locrian
	default:
		return theory.Major
	}
}

var emotionNames = map[string]emotion.Category{
	"joy": emotion.Joy, "triumph": emotion.Triumph, "excitement": emotion.Excitement,
	"euphoria": emotion.Euphoria, "anger": emotion.Anger, "intensity": emotion.Intensity,
	"urgency": emotion.Urgency, "chaos": emotion.Chaos, "peace": emotion.Peace,
	"tenderness": emotion.Tenderness, "hope": emotion.Hope, "nostalgia": emotion.Nostalgia,
	"sadness": emotion.Sadness, "melancholy": emotion.Melancholy, "tension": emotion.Tension,
	"dread": emotion.Dread, "neutral": emotion.Neutral,
}

func parseEmotionCategory(s string) emotion.Category {
	if c, ok := emotionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return emotion.Neutral
}
