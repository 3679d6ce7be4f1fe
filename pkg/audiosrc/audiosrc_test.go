package audiosrc

import (
	"io"
	"testing"

	"github.com/opd-ai/synesthesia/pkg/ring"
)

// TestSilenceProducesZeroes verifies the Silence waveform.
func TestSilenceProducesZeroes(t *testing.T) {
	sig := NewTestSignal(Silence, 0, 44100, 512)
	sig.limiter.SetLimit(1e9) // effectively unlimited, keeps the test fast

	buf := make([]float32, 512)
	n, err := sig.ReadChunk(buf)
	if err != nil || n != 512 {
		t.Fatalf("ReadChunk() = (%d, %v)", n, err)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %f, want 0", i, v)
		}
	}
}

// TestSineIsBounded verifies the sine generator stays within [-1, 1].
func TestSineIsBounded(t *testing.T) {
	sig := NewTestSignal(Sine, 440, 44100, 512)
	sig.limiter.SetLimit(1e9)

	buf := make([]float32, 512)
	sig.ReadChunk(buf)
	for i, v := range buf {
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("sample %d = %f, out of [-1,1]", i, v)
		}
	}
}

// fakeDevice implements DeviceReader with fixed stereo content.
type fakeDevice struct {
	left, right float32
	calls       int
}

func (d *fakeDevice) Channels() int    { return 2 }
func (d *fakeDevice) SampleRate() int  { return 44100 }
func (d *fakeDevice) Read(buf []float32) (int, error) {
	d.calls++
	if d.calls > 1 {
		return 0, io.EOF
	}
	frames := len(buf) / 2
	for i := 0; i < frames; i++ {
		buf[i*2] = d.left
		buf[i*2+1] = d.right
	}
	return frames, nil
}

// TestDeviceMixdownToMono verifies stereo channels are averaged.
func TestDeviceMixdownToMono(t *testing.T) {
	dev, err := NewDevice(&fakeDevice{left: 1.0, right: -1.0})
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	dst := make([]float32, 4)
	n, err := dev.ReadChunk(dst)
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadChunk() n = %d, want 4", n)
	}
	for i, v := range dst {
		if v != 0 {
			t.Errorf("sample %d = %f, want 0 (mix of +1/-1)", i, v)
		}
	}
}

// TestDeviceRejectsInvalidChannelCount verifies the StreamConfig channel
// bound is enforced.
func TestDeviceRejectsInvalidChannelCount(t *testing.T) {
	if _, err := NewDevice(&fakeDevice0Channels{}); err == nil {
		t.Fatalf("expected error for 0-channel device")
	}
}

type fakeDevice0Channels struct{}

func (fakeDevice0Channels) Channels() int               { return 0 }
func (fakeDevice0Channels) SampleRate() int             { return 44100 }
func (fakeDevice0Channels) Read([]float32) (int, error) { return 0, io.EOF }

// TestAutoGainBoundedChange verifies the gain never moves by more than
// 3x up or 1/4 down per update.
func TestAutoGainBoundedChange(t *testing.T) {
	g := NewAutoGain(0.5, 1.0) // alpha=1 jumps straight to the desired gain pre-clamp
	quiet := make([]float32, 256)
	for i := range quiet {
		quiet[i] = 0.001
	}
	g.Apply(quiet)
	if g.Gain() > 3.0 {
		t.Fatalf("Gain() = %f, exceeded 3x clamp from initial 1.0", g.Gain())
	}

	loud := make([]float32, 256)
	for i := range loud {
		loud[i] = 1.0
	}
	before := g.Gain()
	g.Apply(loud)
	if g.Gain() < before*0.25-1e-9 {
		t.Fatalf("Gain() = %f, dropped below 1/4 of %f", g.Gain(), before)
	}
}

// TestProducerPushesIntoRingBuffer verifies the end-to-end pump path.
func TestProducerPushesIntoRingBuffer(t *testing.T) {
	sig := NewTestSignal(Silence, 0, 44100, 64)
	sig.limiter.SetLimit(1e9)
	buf := ring.New(256)
	p := NewProducer(sig, buf, 64, nil)

	written, done, err := p.PumpOnce()
	if err != nil || done {
		t.Fatalf("PumpOnce() = (%d, %v, %v)", written, done, err)
	}
	if written != 64 {
		t.Fatalf("written = %d, want 64", written)
	}
	if buf.Available() != 64 {
		t.Fatalf("buf.Available() = %d, want 64", buf.Available())
	}
}

// TestProducerReportsDone verifies EOF from the source surfaces as done.
func TestProducerReportsDone(t *testing.T) {
	f := &File{samples: []float32{0.1, 0.2, 0.3}}
	buf := ring.New(64)
	p := NewProducer(f, buf, 8, nil)

	_, done1, _ := p.PumpOnce()
	if done1 {
		t.Fatalf("first pump reported done with samples remaining")
	}
	_, done2, _ := p.PumpOnce()
	if !done2 {
		t.Fatalf("second pump should report done once samples are exhausted")
	}
}
