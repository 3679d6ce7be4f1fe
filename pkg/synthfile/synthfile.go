// Package synthfile implements the binary ".synth" persistence codec: a
// magic-prefixed, size-prefixed sequence of msgpack-encoded sections pairing
// an offline music analysis with video/transition/shader timelines and a
// style reference.
package synthfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors for artifact decode/validation failures.
var (
	ErrInvalidArtifact  = errors.New("synthfile: invalid artifact")
	ErrNonMonotonic     = fmt.Errorf("%w: event times are not monotonic", ErrInvalidArtifact)
	ErrTruncated        = fmt.Errorf("%w: truncated section", ErrInvalidArtifact)
	ErrBadMagic         = fmt.Errorf("%w: bad magic", ErrInvalidArtifact)
)

var magic = [8]byte{'S', 'Y', 'N', 'T', 'H', 0x00, 0x01, 0x00}

const (
	flagHasVideo  uint32 = 1 << 0
	flagHasShader uint32 = 1 << 1
)

// Chord is a detected harmonic event on the analysis timeline.
type Chord struct {
	Time       float64 `msgpack:"time"`
	Duration   float64 `msgpack:"duration"`
	Chord      string  `msgpack:"chord"`
	Confidence float32 `msgpack:"confidence"`
}

// Section is a structural segment on the analysis timeline.
type Section struct {
	Type       string  `msgpack:"type"`
	Start      float64 `msgpack:"start"`
	End        float64 `msgpack:"end"`
	Energy     float32 `msgpack:"energy"`
	Repetition uint8   `msgpack:"repetition"`
	Confidence float32 `msgpack:"confidence"`
}

// ClimaxPoint marks a moment of maximum intensity.
type ClimaxPoint struct {
	Time      float64 `msgpack:"time"`
	Intensity float32 `msgpack:"intensity"`
	Type      string  `msgpack:"type"`
}

// EmotionPoint is a sampled affective reading on the emotion arc.
type EmotionPoint struct {
	Time      float64 `msgpack:"time"`
	Emotion   string  `msgpack:"emotion"`
	Intensity float32 `msgpack:"intensity"`
	Valence   float32 `msgpack:"valence"`
	Arousal   float32 `msgpack:"arousal"`
}

// MusicAnalysis is the offline analysis timeline, sampled at 10 Hz for the
// energy/tension/loudness curves and carrying explicit event lists for
// beats, chords, sections and climaxes.
type MusicAnalysis struct {
	Duration      float64 `msgpack:"duration"`
	SampleRate    uint32  `msgpack:"sample_rate"`
	AudioHash     string  `msgpack:"audio_hash"`

	Key              string  `msgpack:"key"`
	Mode             string  `msgpack:"mode"`
	KeyConfidence    float32 `msgpack:"key_confidence"`

	Tempo           float32 `msgpack:"tempo"`
	TempoConfidence float32 `msgpack:"tempo_confidence"`
	Beats           []float64 `msgpack:"beats"`
	Downbeats       []float64 `msgpack:"downbeats"`

	Chords   []Chord       `msgpack:"chords"`
	Sections []Section     `msgpack:"sections"`
	Climaxes []ClimaxPoint `msgpack:"climaxes"`

	EnergyCurve   []float32 `msgpack:"energy_curve"`
	TensionCurve  []float32 `msgpack:"tension_curve"`
	LoudnessCurve []float32 `msgpack:"loudness_curve"`

	EmotionArc []EmotionPoint `msgpack:"emotion_arc"`
}

// VideoSegment is a pre-rendered or pre-styled timeline segment.
type VideoSegment struct {
	SegmentID    uint32  `msgpack:"segment_id"`
	StartTime    float64 `msgpack:"start_time"`
	EndTime      float64 `msgpack:"end_time"`
	Mood         string  `msgpack:"mood"`
	ClarityLevel float32 `msgpack:"clarity_level"`
	BaseHue      float32 `msgpack:"base_hue"`
	Saturation   float32 `msgpack:"saturation"`
	Brightness   float32 `msgpack:"brightness"`
}

// Transition is a scheduled segment-to-segment transition.
type Transition struct {
	Time         float64 `msgpack:"time"`
	FromSegment  uint32  `msgpack:"from_segment"`
	ToSegment    uint32  `msgpack:"to_segment"`
	Type         string  `msgpack:"type"`
	DurationSecs float64 `msgpack:"duration"`
}

// ShaderCurves is the optional sampled-curve track driving post-process
// parameters directly, independent of the per-frame derivation in C9.
type ShaderCurves struct {
	Times             []float64 `msgpack:"times"`
	BloomIntensity    []float32 `msgpack:"bloom_intensity"`
	ChromaticAmount   []float32 `msgpack:"chromatic_amount"`
	VignetteStrength  []float32 `msgpack:"vignette_strength"`
	GrainAmount       []float32 `msgpack:"grain_amount"`
}

type styleRef struct {
	Name   string                 `msgpack:"name"`
	Params map[string]interface{} `msgpack:"params"`
}

// File is the complete in-memory ".synth" artifact. Once loaded it is
// treated as immutable and shared by value across the analyzer layers.
type File struct {
	Version      [2]uint8
	Analysis     MusicAnalysis
	VideoSegs    []VideoSegment
	Transitions  []Transition
	ShaderCurves *ShaderCurves
	StyleName    string
}

// Write encodes f to w in the .synth binary format.
func Write(w io.Writer, f File) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}

	var flags uint32
	if len(f.VideoSegs) > 0 || len(f.Transitions) > 0 {
		flags |= flagHasVideo
	}
	if f.ShaderCurves != nil {
		flags |= flagHasShader
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}

	if err := writeSection(w, f.Analysis); err != nil {
		return err
	}
	if flags&flagHasVideo != 0 {
		if err := writeSection(w, f.VideoSegs); err != nil {
			return err
		}
		if err := writeSection(w, f.Transitions); err != nil {
			return err
		}
	}
	if flags&flagHasShader != 0 {
		if err := writeSection(w, f.ShaderCurves); err != nil {
			return err
		}
	}
	return writeSection(w, styleRef{Name: f.StyleName, Params: map[string]interface{}{}})
}

// Read decodes a ".synth" artifact from r. Any structural problem — bad
// magic, a truncated section, or non-monotonic event times — returns a
// wrapped ErrInvalidArtifact and the caller (pkg/analyzer) falls back to
// live-only mode rather than treating this as fatal.
func Read(r io.Reader) (File, error) {
	var got [8]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if got != magic {
		return File{}, ErrBadMagic
	}

	var flags uint32
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	var analysis MusicAnalysis
	if err := readSection(r, &analysis); err != nil {
		return File{}, err
	}
	if err := validateMonotonic(analysis); err != nil {
		return File{}, err
	}

	var videoSegs []VideoSegment
	var transitions []Transition
	if flags&flagHasVideo != 0 {
		if err := readSection(r, &videoSegs); err != nil {
			return File{}, err
		}
		if err := readSection(r, &transitions); err != nil {
			return File{}, err
		}
		if err := validateTransitionsMonotonic(transitions); err != nil {
			return File{}, err
		}
	}

	var shaderCurves *ShaderCurves
	if flags&flagHasShader != 0 {
		var sc ShaderCurves
		if err := readSection(r, &sc); err != nil {
			return File{}, err
		}
		shaderCurves = &sc
	}

	var style styleRef
	if err := readSection(r, &style); err != nil {
		return File{}, err
	}

	return File{
		Version:      [2]uint8{1, 0},
		Analysis:     analysis,
		VideoSegs:    videoSegs,
		Transitions:  transitions,
		ShaderCurves: shaderCurves,
		StyleName:    style.Name,
	}, nil
}

func writeSection(w io.Writer, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readSection(r io.Reader, v interface{}) error {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return nil
}

func validateMonotonic(a MusicAnalysis) error {
	if !isSortedF64(a.Beats) || !isSortedF64(a.Downbeats) {
		return ErrNonMonotonic
	}
	for i := 1; i < len(a.Chords); i++ {
		if a.Chords[i].Time < a.Chords[i-1].Time {
			return ErrNonMonotonic
		}
	}
	for i := 1; i < len(a.Sections); i++ {
		if a.Sections[i].Start < a.Sections[i-1].Start {
			return ErrNonMonotonic
		}
	}
	for i := 1; i < len(a.Climaxes); i++ {
		if a.Climaxes[i].Time < a.Climaxes[i-1].Time {
			return ErrNonMonotonic
		}
	}
	for i := 1; i < len(a.EmotionArc); i++ {
		if a.EmotionArc[i].Time < a.EmotionArc[i-1].Time {
			return ErrNonMonotonic
		}
	}
	return nil
}

func validateTransitionsMonotonic(ts []Transition) error {
	for i := 1; i < len(ts); i++ {
		if ts[i].Time < ts[i-1].Time {
			return ErrNonMonotonic
		}
	}
	return nil
}

func isSortedF64(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] < v[i-1] {
			return false
		}
	}
	return true
}

// Load is a convenience wrapper reading a full in-memory buffer, logging the
// outcome for observability while leaving error handling to the caller.
func Load(data []byte) (File, error) {
	logger := logrus.WithField("component", "synthfile")
	f, err := Read(bytes.NewReader(data))
	if err != nil {
		logger.WithError(err).Warn("failed to load .synth artifact, falling back to live-only mode")
		return File{}, err
	}
	logger.WithField("audio_hash", f.Analysis.AudioHash).Debug("loaded .synth artifact")
	return f, nil
}
