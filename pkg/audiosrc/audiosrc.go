// Package audiosrc implements the audio source ABI: Device, File, and
// TestSignal variants feeding the ring buffer through a common Producer
// that performs multi-channel mixdown and auto-gain.
package audiosrc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/opd-ai/synesthesia/pkg/ring"
)

// Sentinel errors for the configuration/device failure kinds callers are
// expected to distinguish with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("audiosrc: unsupported format")
	ErrDeviceGone        = errors.New("audiosrc: device disappeared")
)

// Source is the minimal pull interface every AudioSource variant exposes.
// ReadChunk fills dst (mono, one sample per slot) and returns the number
// of samples written; fewer than len(dst) signals end of stream.
type Source interface {
	ReadChunk(dst []float32) (int, error)
}

// DeviceReader is supplied by a platform-specific binding that performs the
// actual hardware capture; audiosrc.Device adapts it to the Source
// interface by mixing down channels. Implementations must never block
// indefinitely — a closed device should return io.EOF.
type DeviceReader interface {
	// Read fills buf with interleaved float32 samples at Channels() and
	// SampleRate(), returning frames (not samples) read.
	Read(buf []float32) (frames int, err error)
	Channels() int
	SampleRate() int
}

// Device adapts a platform DeviceReader to Source, mixing multi-channel
// input down to mono (sum ÷ channel count).
type Device struct {
	reader DeviceReader
	logger *logrus.Entry
}

// NewDevice wraps reader. Returns ErrUnsupportedFormat if its channel count
// is outside StreamConfig's valid range.
func NewDevice(reader DeviceReader) (*Device, error) {
	if reader.Channels() < 1 || reader.Channels() > 8 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, reader.Channels())
	}
	return &Device{reader: reader, logger: logrus.WithField("component", "audiosrc.device")}, nil
}

// ReadChunk mixes one chunk of interleaved device audio down to mono.
func (d *Device) ReadChunk(dst []float32) (int, error) {
	ch := d.reader.Channels()
	interleaved := make([]float32, len(dst)*ch)
	frames, err := d.reader.Read(interleaved)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		d.logger.WithError(err).Warn("device read failed")
		return 0, fmt.Errorf("%w: %v", ErrDeviceGone, err)
	}
	for i := 0; i < frames && i < len(dst); i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += interleaved[i*ch+c]
		}
		dst[i] = sum / float32(ch)
	}
	return min(frames, len(dst)), nil
}

// File decodes a WAV file fully into memory and serves it as mono float32
// samples, resampled trivially by channel mixdown (no sample-rate
// conversion; callers should configure StreamConfig.sample_rate to match).
type File struct {
	samples []float32 // mono
	pos     int
}

// NewFile decodes r (a WAV stream) via the ebiten audio decoder and mixes
// its channels down to mono.
func NewFile(r io.Reader, sampleRate int) (*File, error) {
	stream, err := wav.DecodeWithoutResampling(readerAt(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	// ebiten's wav decoder always yields 16-bit stereo PCM.
	const bytesPerSample = 2
	const channels = 2
	frameSize := bytesPerSample * channels
	numFrames := len(pcm) / frameSize
	mono := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		base := i * frameSize
		l := int16(uint16(pcm[base]) | uint16(pcm[base+1])<<8)
		rr := int16(uint16(pcm[base+2]) | uint16(pcm[base+3])<<8)
		mono[i] = (float32(l) + float32(rr)) / 2.0 / 32768.0
	}
	return &File{samples: mono}, nil
}

// ReadChunk copies up to len(dst) samples starting at the current position.
func (f *File) ReadChunk(dst []float32) (int, error) {
	n := copy(dst, f.samples[f.pos:])
	f.pos += n
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek moves the read position to sample index n, clamping to the decoded
// sample count. Used by the engine facade's seek(t) command.
func (f *File) Seek(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(f.samples) {
		n = len(f.samples)
	}
	f.pos = n
}

func readerAt(r io.Reader) io.Reader {
	if ra, ok := r.(io.ReadSeeker); ok {
		return ra
	}
	data, _ := io.ReadAll(r)
	return bytes.NewReader(data)
}

// Waveform selects a TestSignal generator's shape.
type Waveform int

const (
	Sine Waveform = iota
	Silence
	WhiteNoise
	Impulse
)

// TestSignal generates a deterministic synthetic mono signal, paced by a
// token-bucket limiter so a harness consuming it in a tight loop still
// observes roughly real-time delivery.
type TestSignal struct {
	waveform   Waveform
	freq       float64
	sampleRate int
	n          int64
	limiter    *rate.Limiter
	rng        uint64 // xorshift state for WhiteNoise
}

// NewTestSignal creates a TestSignal of the given waveform/frequency,
// paced at realtime (one chunk's worth of samples per chunkDuration).
func NewTestSignal(waveform Waveform, freq float64, sampleRate, chunkSize int) *TestSignal {
	chunkDuration := time.Duration(float64(chunkSize) / float64(sampleRate) * float64(time.Second))
	limit := rate.Every(chunkDuration)
	return &TestSignal{
		waveform:   waveform,
		freq:       freq,
		sampleRate: sampleRate,
		limiter:    rate.NewLimiter(limit, 1),
		rng:        0x2545F4914F6CDD1D,
	}
}

// ReadChunk blocks until the pacing limiter permits, then fills dst.
func (t *TestSignal) ReadChunk(dst []float32) (int, error) {
	_ = t.limiter.Wait(noopContext{})
	for i := range dst {
		switch t.waveform {
		case Sine:
			phase := 2 * math.Pi * t.freq * float64(t.n) / float64(t.sampleRate)
			dst[i] = float32(math.Sin(phase))
		case WhiteNoise:
			t.rng ^= t.rng << 13
			t.rng ^= t.rng >> 7
			t.rng ^= t.rng << 17
			dst[i] = float32(t.rng>>40)/float32(1<<24) - 1.0
		case Impulse:
			if t.n%int64(t.sampleRate) == 0 {
				dst[i] = 1.0
			}
		case Silence:
			dst[i] = 0
		}
		t.n++
	}
	return len(dst), nil
}

// noopContext satisfies context.Context for rate.Limiter.Wait without
// importing context solely for an always-background value.
type noopContext struct{}

func (noopContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (noopContext) Done() <-chan struct{}       { return nil }
func (noopContext) Err() error                  { return nil }
func (noopContext) Value(key interface{}) interface{} { return nil }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AutoGain applies a clamped exponential moving average gain targeting
// targetRMS. The applied gain never changes by more than a factor of 3 (up)
// or 1/4 (down) relative to its previous value per update, so a sudden loud
// transient can't snap the gain to near-zero in one step.
type AutoGain struct {
	gain      float64
	targetRMS float64
	alpha     float64
}

// NewAutoGain creates an AutoGain targeting targetRMS with smoothing alpha
// (0,1].
func NewAutoGain(targetRMS, alpha float64) *AutoGain {
	return &AutoGain{gain: 1.0, targetRMS: targetRMS, alpha: alpha}
}

// Apply scales chunk in place by the current gain, then updates the gain
// estimate from the chunk's measured RMS.
func (g *AutoGain) Apply(chunk []float32) {
	for i := range chunk {
		chunk[i] *= float32(g.gain)
	}

	var sumSq float64
	for _, s := range chunk {
		sumSq += float64(s) * float64(s)
	}
	if len(chunk) == 0 || sumSq == 0 {
		return
	}
	rms := math.Sqrt(sumSq / float64(len(chunk)))
	if rms <= 0 {
		return
	}

	desired := g.targetRMS / rms * g.gain
	next := g.gain + (desired-g.gain)*g.alpha

	maxUp := g.gain * 3.0
	maxDown := g.gain * 0.25
	if next > maxUp {
		next = maxUp
	}
	if next < maxDown {
		next = maxDown
	}
	g.gain = next
}

// Gain returns the current applied gain.
func (g *AutoGain) Gain() float64 { return g.gain }

// Producer drains a Source into a ring.Buffer one chunk at a time,
// optionally applying AutoGain first. It is meant to run on the audio
// audio producer role, but performs no allocation beyond its fixed chunk
// scratch buffer after construction.
type Producer struct {
	source  Source
	buf     *ring.Buffer
	gain    *AutoGain
	scratch []float32
	logger  *logrus.Entry
}

// NewProducer creates a Producer reading chunkSize samples at a time from
// source into buf, applying gain if non-nil.
func NewProducer(source Source, buf *ring.Buffer, chunkSize int, gain *AutoGain) *Producer {
	return &Producer{
		source:  source,
		buf:     buf,
		gain:    gain,
		scratch: make([]float32, chunkSize),
		logger:  logrus.WithField("component", "audiosrc.producer"),
	}
}

// PumpOnce reads one chunk from source and pushes it into the ring buffer,
// returning the number of samples written (after overflow discard) and
// whether the source is exhausted.
func (p *Producer) PumpOnce() (written int, done bool, err error) {
	n, err := p.source.ReadChunk(p.scratch)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, true, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, true, nil
	}
	chunk := p.scratch[:n]
	if p.gain != nil {
		p.gain.Apply(chunk)
	}
	written = p.buf.Push(chunk)
	if written < n {
		p.logger.WithField("dropped", n-written).Debug("ring buffer overflow, samples discarded")
	}
	return written, false, nil
}
