// Package engine wires the C1-C9 components into the top-level command
// surface: load_synth, set_audio_source, set_style, the play/pause/stop/seek
// transport, next_frame, and get_metrics. It replaces the teacher's generic
// entity-component-system (see DESIGN.md): there is no game entity/component
// model here, C9 already owns a synchronous pull-based per-frame state
// machine, and C1-C9 each own their state directly.
//
// Engine runs a three-role concurrency model: an audio producer (PumpAudio),
// an analysis worker (AnalyzeChunk), and a render driver (NextFrame). The
// analysis worker publishes a single-slot snapshot that the render driver
// reads without blocking; callers are expected to run PumpAudio/AnalyzeChunk
// on their own goroutine(s) and NextFrame on the render loop.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/synesthesia/pkg/analyzer"
	"github.com/opd-ai/synesthesia/pkg/audiosrc"
	"github.com/opd-ai/synesthesia/pkg/clarity"
	"github.com/opd-ai/synesthesia/pkg/config"
	"github.com/opd-ai/synesthesia/pkg/feature"
	"github.com/opd-ai/synesthesia/pkg/ring"
	"github.com/opd-ai/synesthesia/pkg/scene"
	"github.com/opd-ai/synesthesia/pkg/style"
	"github.com/opd-ai/synesthesia/pkg/synthfile"
	"github.com/opd-ai/synesthesia/pkg/theory"
	"github.com/opd-ai/synesthesia/pkg/transition"
	"github.com/opd-ai/synesthesia/pkg/world"
)

// AudioSourceKind selects which AudioSource variant SetAudioSource installs:
// Device, File, or TestSignal.
type AudioSourceKind int

const (
	SourceDevice AudioSourceKind = iota
	SourceFile
	SourceTestSignal
)

// AudioSourceSpec configures SetAudioSource's target variant. Only the
// fields relevant to Kind need to be set.
type AudioSourceSpec struct {
	Kind         AudioSourceKind
	DeviceReader audiosrc.DeviceReader // SourceDevice
	File         io.Reader             // SourceFile, a WAV stream
	Waveform     audiosrc.Waveform     // SourceTestSignal
	Frequency    float64               // SourceTestSignal
}

// Metrics is the engine's get_metrics() surface.
type Metrics struct {
	BufferStats       ring.Stats
	FeaturesPublished uint64
	FramesEmitted     uint64
	AvgChunkLatencyMs float64
}

// snapshot is the single-slot state the analysis worker publishes for the
// render driver to read.
type snapshot struct {
	understanding analyzer.Understanding
	clarityTotal  float64
	clarityBreak  clarity.Breakdown
	t             float64
}

// Engine is the top-level facade. The zero value is not usable; construct
// with New.
type Engine struct {
	cfg config.Config

	mu          sync.RWMutex
	buf         *ring.Buffer
	extractor   *feature.Extractor
	analyzer    *analyzer.Analyzer
	clarityAcc  *clarity.Accumulator
	styleName   string
	styleProf   style.Profile
	world       *world.Generator
	transitions *transition.Engine
	audioHash   string

	source   audiosrc.Source
	gain     *audiosrc.AutoGain
	producer *audiosrc.Producer
	scratch  []float32

	camera    *scene.Camera
	assembler *scene.Assembler

	sampleCount      int64
	playing          bool
	haveSection      bool
	lastSectionStart float64
	sectionCounter   int
	lastBeat         bool
	nextAmbientAt    float64
	lastChordType    theory.ChordType
	lastChordRoot    theory.Key

	snap atomic.Pointer[snapshot]

	featuresPublished atomic.Uint64
	framesEmitted     atomic.Uint64
	latencySumNs      atomic.Uint64
	latencyCount      atomic.Uint64

	logger *logrus.Entry
}

var _ scene.FrameSource = (*Engine)(nil)

// New creates an Engine from cfg, starting in the configured default style
// with an orbiting default camera and no audio source installed.
func New(cfg config.Config) *Engine {
	styleProf := style.Get(cfg.DefaultStyle)

	camParams := scene.CameraParams{
		OrbitRadius:     15,
		OrbitHeight:     8,
		AutoRotateSpeed: 0.2,
		Smoothing:       scene.DefaultSmoothing,
	}
	cam := scene.NewCamera(scene.Orbit, camParams)

	a := analyzer.NewAnalyzer()
	if cfg.ClimaxTolerance > 0 {
		a.ClimaxTolerance = cfg.ClimaxTolerance
	}

	e := &Engine{
		cfg:         cfg,
		buf:         ring.New(cfg.BufferCapacity),
		extractor:   feature.NewExtractor(cfg.SampleRate, cfg.ChunkSize),
		analyzer:    a,
		clarityAcc:  clarity.NewAccumulator(),
		styleName:   cfg.DefaultStyle,
		styleProf:   styleProf,
		world:       world.NewGenerator("", styleProf),
		transitions: transition.NewEngine(nil, 0),
		scratch:     make([]float32, cfg.ChunkSize),
		camera:      cam,
		logger:      logrus.WithField("component", "engine"),
	}
	e.assembler = scene.NewAssembler(e, cam, scene.ChunkWindow{Back: cfg.ChunkWindowBack, Forward: cfg.ChunkWindowForward})
	return e
}

// LoadSynth reads and decodes a .synth artifact from path, attaching its
// structure/emotion timeline, key/mode override, transition schedule and
// style reference. A decode failure is returned to the caller and leaves
// the engine in live-only mode.
func (e *Engine) LoadSynth(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("engine: load_synth: %w", err)
	}
	f, err := synthfile.Load(data)
	if err != nil {
		return fmt.Errorf("engine: load_synth: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.analyzer.Attach(f)
	e.audioHash = f.Analysis.AudioHash
	e.world = world.NewGenerator(e.audioHash, e.styleProf)
	e.haveSection = false
	e.sectionCounter = 0

	schedule := make([]transition.Transition, len(f.Transitions))
	for i, t := range f.Transitions {
		schedule[i] = transition.Transition{
			Time:        t.Time,
			FromSegment: t.FromSegment,
			ToSegment:   t.ToSegment,
			Kind:        transition.ParseKind(t.Type),
			Duration:    t.DurationSecs,
		}
	}
	e.transitions = transition.NewEngine(schedule, 0)

	if f.StyleName != "" {
		e.setStyleLocked(f.StyleName)
	}
	return nil
}

// SetAudioSource installs the AudioSource variant described by spec, wiring
// a fresh Producer (with auto-gain, if configured) in front of the ring
// buffer.
func (e *Engine) SetAudioSource(spec AudioSourceSpec) error {
	var src audiosrc.Source
	switch spec.Kind {
	case SourceDevice:
		d, err := audiosrc.NewDevice(spec.DeviceReader)
		if err != nil {
			return fmt.Errorf("engine: set_audio_source: %w", err)
		}
		src = d
	case SourceFile:
		f, err := audiosrc.NewFile(spec.File, e.cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("engine: set_audio_source: %w", err)
		}
		src = f
	case SourceTestSignal:
		src = audiosrc.NewTestSignal(spec.Waveform, spec.Frequency, e.cfg.SampleRate, e.cfg.ChunkSize)
	default:
		return fmt.Errorf("engine: set_audio_source: unknown kind %d", spec.Kind)
	}

	var gain *audiosrc.AutoGain
	if e.cfg.AutoGain {
		gain = audiosrc.NewAutoGain(e.cfg.TargetRMS, 0.2)
	}

	e.mu.Lock()
	e.source = src
	e.gain = gain
	e.producer = audiosrc.NewProducer(src, e.buf, e.cfg.ChunkSize, gain)
	e.sampleCount = 0
	if e.audioHash == "" {
		// No .synth artifact has pinned an audio_hash yet: mint a
		// per-session identity so content-addressable world placement still
		// varies session to session rather than colliding on "".
		e.audioHash = uuid.NewString()
		e.world = world.NewGenerator(e.audioHash, e.styleProf)
	}
	e.mu.Unlock()
	return nil
}

// SetStyle switches the active style profile by catalog name, falling back
// to Ambient for an unrecognized name (style.Get's contract).
func (e *Engine) SetStyle(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setStyleLocked(name)
	return nil
}

func (e *Engine) setStyleLocked(name string) {
	e.styleName = name
	e.styleProf = style.Get(name)
	e.world.SetProfile(e.styleProf)
}

// Play resumes track time advancement.
func (e *Engine) Play() {
	e.mu.Lock()
	e.playing = true
	e.mu.Unlock()
}

// Pause freezes track time advancement; next_frame keeps returning the
// current frame's state without advancing t.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()
}

// Stop pauses playback and rewinds to the head of the stream.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()
	e.Seek(0)
}

// Seek jumps track time to t seconds, rewinding the audio source (when it
// supports random access) and the scene assembler's clock. Seeking to at or
// before the head resets the clarity accumulator once the next chunk is
// analyzed.
func (e *Engine) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	e.mu.Lock()
	e.sampleCount = int64(t * float64(e.cfg.SampleRate))
	if f, ok := e.source.(*audiosrc.File); ok {
		f.Seek(int(e.sampleCount))
	}
	e.mu.Unlock()
	e.assembler.SeekTo(t)
}

// PumpAudio drains one chunk from the installed audio source into the ring
// buffer — the audio producer role. Call it in a tight loop
// from a dedicated goroutine; it returns done once the source is exhausted.
func (e *Engine) PumpAudio() (done bool, err error) {
	e.mu.RLock()
	p := e.producer
	e.mu.RUnlock()
	if p == nil {
		return true, errors.New("engine: no audio source installed")
	}
	_, done, err = p.PumpOnce()
	return done, err
}

// AnalyzeChunk pops one chunk's worth of samples from the ring buffer and
// runs it through the analyzer, clarity accumulator, and world generator —
// the analysis worker role — then publishes the result for next_frame to
// read. Returns false when fewer than a full chunk is available yet; the
// caller's policy on underrun is simply to retry next tick.
func (e *Engine) AnalyzeChunk() bool {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buf.Available() < e.cfg.ChunkSize {
		return false
	}
	n := e.buf.Pop(e.scratch)
	if n < e.cfg.ChunkSize {
		return false
	}

	t := float64(e.sampleCount) / float64(e.cfg.SampleRate)
	e.sampleCount += int64(n)

	sig := e.extractor.Extract(e.scratch, t)
	understanding := e.analyzer.Analyze(sig)

	ev := clarity.Evidence{
		BeatIntensity:    sig.BeatIntensity,
		SectionProgress:  understanding.SectionProgress,
		TheoryConfidence: understanding.Theory.TempoConfidence,
		StructureKnown:   e.analyzer.HasSynthFile(),
		EmotionIntensity: understanding.Emotion.Intensity,
	}
	dt := float64(e.cfg.ChunkSize) / float64(e.cfg.SampleRate)
	total, breakdown := e.clarityAcc.Update(t, dt, ev)

	e.driveWorldLocked(t, understanding)

	e.snap.Store(&snapshot{understanding: understanding, clarityTotal: total, clarityBreak: breakdown, t: t})
	e.featuresPublished.Add(1)

	e.latencySumNs.Add(uint64(time.Since(start).Nanoseconds()))
	e.latencyCount.Add(1)
	return true
}

// driveWorldLocked translates one analyzed chunk into world generator
// events: chunking along section boundaries (or a fixed duration in
// live-only mode), beat/downbeat/chord/ambient placement. Callers hold mu.
func (e *Engine) driveWorldLocked(t float64, u analyzer.Understanding) {
	if e.analyzer.HasSynthFile() {
		if !e.haveSection || u.Section.StartTime != e.lastSectionStart {
			e.world.BeginChunk(e.sectionCounter, u.Section.StartTime, u.Section.EndTime)
			e.sectionCounter++
			e.lastSectionStart = u.Section.StartTime
			e.haveSection = true
			if u.Section.Repetition == 1 {
				e.world.OnSectionStart(u.Section)
			}
		}
	} else if e.world.Current() == nil || t-e.world.Current().TBegin >= world.DefaultChunkDuration {
		e.world.BeginChunk(e.sectionCounter, t, t+world.DefaultChunkDuration)
		e.sectionCounter++
	}

	if u.Signal.IsBeat {
		e.world.OnBeat(u.Signal.BeatIntensity)
		if !e.lastBeat {
			e.world.OnDownbeat(u.Theory.TimbreBrightness)
		}
	}
	e.lastBeat = u.Signal.IsBeat

	if t >= e.nextAmbientAt {
		e.world.TickAmbient()
		e.nextAmbientAt = t + 1.0
	}

	if u.Theory.Chord.Type != e.lastChordType || u.Theory.Chord.Root != e.lastChordRoot {
		e.world.OnChordChange(u.Theory.Chord, u.Theory.Mode)
		e.lastChordType = u.Theory.Chord.Type
		e.lastChordRoot = u.Theory.Chord.Root
	}
}

// NextFrame advances the scene by dt and assembles the next SceneFrame —
// the render driver role. It never blocks: it reads whatever
// the analysis worker last published.
func (e *Engine) NextFrame(dt float64) scene.Frame {
	e.mu.RLock()
	playing := e.playing
	e.mu.RUnlock()

	frame := e.assembler.NextFrame(dt, playing)
	e.framesEmitted.Add(1)
	return frame
}

// GetMetrics returns the engine's observability surface.
func (e *Engine) GetMetrics() Metrics {
	count := e.latencyCount.Load()
	var avgMs float64
	if count > 0 {
		avgMs = float64(e.latencySumNs.Load()) / float64(count) / 1e6
	}
	return Metrics{
		BufferStats:       e.buf.Stats(),
		FeaturesPublished: e.featuresPublished.Load(),
		FramesEmitted:     e.framesEmitted.Load(),
		AvgChunkLatencyMs: avgMs,
	}
}

// LatestSignal implements scene.FrameSource, returning the most recently
// published Signal, or the zero value before the first chunk is analyzed.
func (e *Engine) LatestSignal() feature.Signal {
	if s := e.snap.Load(); s != nil {
		return s.understanding.Signal
	}
	return feature.Signal{}
}

// Understanding implements scene.FrameSource. t is accepted for interface
// compatibility but ignored: the analysis worker runs at chunk cadence, not
// frame cadence, so next_frame always reads the latest published reading.
func (e *Engine) Understanding(t float64) analyzer.Understanding {
	if s := e.snap.Load(); s != nil {
		return s.understanding
	}
	return analyzer.Understanding{}
}

// Clarity implements scene.FrameSource, returning the latest published
// clarity total and breakdown.
func (e *Engine) Clarity(t, dt float64) (float64, clarity.Breakdown) {
	if s := e.snap.Load(); s != nil {
		return s.clarityTotal, s.clarityBreak
	}
	return 0, clarity.Breakdown{}
}

// Transitions implements scene.FrameSource.
func (e *Engine) Transitions() *transition.Engine {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transitions
}

// VisibleChunks implements scene.FrameSource, returning finalized and
// in-progress world chunks overlapping [tMin, tMax].
func (e *Engine) VisibleChunks(tMin, tMax float64) []world.WorldChunk {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []world.WorldChunk
	for _, c := range e.world.Chunks() {
		if c.TEnd >= tMin && c.TBegin <= tMax {
			out = append(out, c)
		}
	}
	if cur := e.world.Current(); cur != nil && cur.TEnd >= tMin && cur.TBegin <= tMax {
		out = append(out, *cur)
	}
	return out
}
