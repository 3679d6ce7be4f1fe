package scene

import (
	"github.com/opd-ai/synesthesia/pkg/analyzer"
	"github.com/opd-ai/synesthesia/pkg/clarity"
	"github.com/opd-ai/synesthesia/pkg/emotion"
	"github.com/opd-ai/synesthesia/pkg/feature"
	"github.com/opd-ai/synesthesia/pkg/transition"
	"github.com/opd-ai/synesthesia/pkg/world"
)

// ChunkWindow is the configurable [t-back, t+forward] query window along
// the timeline axis used to select visible chunks.
type ChunkWindow struct {
	Back    float64
	Forward float64
}

// DefaultChunkWindow matches a comfortable default visibility range.
var DefaultChunkWindow = ChunkWindow{Back: 8, Forward: 24}

// Light is a minimal point/directional light description for SceneFrame.
type Light struct {
	Position  world.Vec3
	Color     RGB
	Intensity float64
}

// RGB is a plain linear color without alpha.
type RGB struct{ R, G, B float64 }

// Frame is the SceneFrame output contract to the renderer.
// It is immutable once returned by Assembler.NextFrame.
type Frame struct {
	ClearColor       RGB
	Camera           Pose
	Lights           []Light
	ChunksVisible    []world.WorldChunk
	ActiveTransition *transition.Active
	Uniforms         Uniforms
}

// FrameSource supplies the per-frame reads Assembler pulls from C3/C4/C7/C6.
// The engine facade wires concrete component instances to this interface.
type FrameSource interface {
	LatestSignal() feature.Signal
	Understanding(t float64) analyzer.Understanding
	Clarity(t, dt float64) (float64, clarity.Breakdown)
	Transitions() *transition.Engine
	VisibleChunks(tMin, tMax float64) []world.WorldChunk
}

// Assembler is C9: a synchronous, pull-based per-frame state machine.
// NextFrame never suspends; every input is a non-blocking read of state
// already published by the analysis worker.
type Assembler struct {
	source FrameSource
	camera *Camera
	window ChunkWindow

	t float64

	resolutionX, resolutionY float64
}

// NewAssembler creates an Assembler pulling from source, driving camera,
// with the given visibility window.
func NewAssembler(source FrameSource, camera *Camera, window ChunkWindow) *Assembler {
	if window == (ChunkWindow{}) {
		window = DefaultChunkWindow
	}
	return &Assembler{source: source, camera: camera, window: window, resolutionX: 1920, resolutionY: 1080}
}

// SetResolution configures the resolution forwarded in ShaderUniforms.
func (a *Assembler) SetResolution(w, h float64) {
	a.resolutionX, a.resolutionY = w, h
}

// SeekTo jumps track time directly to t, bypassing the normal per-frame dt
// accumulation. The engine facade calls this from its seek(t) command.
func (a *Assembler) SeekTo(t float64) {
	a.t = t
}

// NextFrame advances track time by dt (when playing is true) and assembles
// the next SceneFrame, reading C3 strictly before C4/C7, and querying C6
// last: its placement decisions can depend on clarity/transition state
// already having settled for this frame.
func (a *Assembler) NextFrame(dt float64, playing bool) Frame {
	if playing {
		a.t += dt
	}
	t := a.t

	understanding := a.source.Understanding(t)

	clarityTotal, _ := a.source.Clarity(t, dt)

	var active *transition.Active
	if eng := a.source.Transitions(); eng != nil {
		if act, ok := eng.Update(t); ok {
			active = &act
		}
	}

	chunks := a.source.VisibleChunks(t-a.window.Back, t+a.window.Forward)

	pose := a.camera.Advance(t, dt)

	hue, sat, light := emotion.ToHSL(understanding.Emotion.Category)
	sat *= understanding.Emotion.Intensity

	isClimax := uint32(0)
	if understanding.IsClimax {
		isClimax = 1
	}

	beat := 0.0
	if understanding.Signal.IsBeat {
		beat = understanding.Signal.BeatIntensity
	}

	uniforms := Uniforms{
		Time:             float32(t),
		DeltaTime:        float32(dt),
		ResolutionX:      float32(a.resolutionX),
		ResolutionY:      float32(a.resolutionY),
		Clarity:          float32(clarityTotal),
		Energy:           float32(understanding.Signal.RMS),
		Bass:             float32(understanding.Signal.Bass),
		Mid:              float32(understanding.Signal.Mid),
		High:             float32(understanding.Signal.High),
		Beat:             float32(beat),
		Tempo:            float32(understanding.Theory.Tempo),
		Valence:          float32(understanding.Emotion.Valence),
		Arousal:          float32(understanding.Emotion.Arousal),
		Hue:              float32(hue),
		Saturation:       float32(sat),
		Lightness:        float32(light),
		SectionType:      uint32(understanding.Section.Type),
		SectionProgress:  float32(understanding.SectionProgress),
		IsClimax:         isClimax,
		BloomIntensity:   float32(0.2 + 0.4*beat),
		ChromaticAmount:  float32(0.1 * beat),
		VignetteStrength: float32(0.3 * (1 - clarityTotal)),
		GrainAmount:      float32(0.08 * (1 - clarityTotal)),
	}

	clearR, clearG, clearB := hslToRGBfloat(hue, sat*0.3, 0.05)

	return Frame{
		ClearColor:       RGB{clearR, clearG, clearB},
		Camera:           pose,
		Lights:           nil,
		ChunksVisible:    chunks,
		ActiveTransition: active,
		Uniforms:         uniforms,
	}
}

func hslToRGBfloat(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360.0
	r = hue2rgb(p, q, hk+1.0/3.0)
	g = hue2rgb(p, q, hk)
	b = hue2rgb(p, q, hk-1.0/3.0)
	return
}

func hue2rgb(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
