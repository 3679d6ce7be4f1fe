// Package feature extracts per-chunk signal descriptors (RMS, band energies,
// spectral centroid/flux, onset, beat) from mono-mixed audio chunks.
package feature

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// NumBands is the number of logarithmically spaced frequency bands.
	NumBands = 32

	beatThreshold   = 1.3
	beatHistoryLen  = 64
	beatRefractorMs = 100.0
)

// Signal is the per-chunk descriptor produced by Extractor.Extract.
type Signal struct {
	RMS               float64
	Bass              float64
	Mid               float64
	High              float64
	IsBeat            bool
	BeatIntensity     float64
	SpectralCentroid  float64
	SpectralFlux      float64
	ZeroCrossingRate  float64
	FrequencyBands    [NumBands]float64
	InstantTempo      float64 // BPM, 0 when no estimate is available this chunk
	T                 float64 // track-local time in seconds, start of chunk
}

// Extractor holds the small amount of inter-chunk state the layer needs: the
// previous band vector (for flux), a rolling energy history (for beat
// detection), and an FFT plan sized to the configured chunk length.
type Extractor struct {
	sampleRate int
	chunkSize  int
	window     []float64

	fft          *fourier.FFT
	prevBands    [NumBands]float64
	energyHist   []float64
	lastBeatTime float64
	firstBeat    bool
	lastBeatMark float64
	haveLastMark bool
}

// NewExtractor builds an Extractor for chunks of exactly chunkSize samples at
// sampleRate Hz.
func NewExtractor(sampleRate, chunkSize int) *Extractor {
	window := make([]float64, chunkSize)
	for i := range window {
		// Hann window, reduces spectral leakage for short chunks.
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(chunkSize-1)))
	}
	return &Extractor{
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
		window:     window,
		fft:        fourier.NewFFT(chunkSize),
		energyHist: make([]float64, 0, beatHistoryLen),
	}
}

// Extract computes Signal for one chunk of mono samples of length chunkSize,
// where t is the track-local time in seconds at the start of the chunk. A
// chunk shorter than expected yields zeroed features rather than an error.
func (e *Extractor) Extract(samples []float32, t float64) Signal {
	if len(samples) < e.chunkSize {
		return Signal{T: t}
	}
	samples = samples[:e.chunkSize]

	rms := clamp01(e.rms(samples))
	bands := e.bands(samples)
	bass := meanRange(bands[:], 0, 4)
	mid := meanRange(bands[:], 8, 16)
	high := meanRange(bands[:], 20, 32)
	centroid := clamp01(e.centroid(bands))
	flux := clamp01(e.flux(bands))
	zcr := clamp01(e.zeroCrossingRate(samples))

	isBeat, intensity := e.detectBeat(bass+rms, t)
	tempo := e.updateTempoEstimate(isBeat, t)

	e.prevBands = bands

	return Signal{
		RMS:              rms,
		Bass:             clamp01(bass),
		Mid:              clamp01(mid),
		High:             clamp01(high),
		IsBeat:           isBeat,
		BeatIntensity:    intensity,
		SpectralCentroid: centroid,
		SpectralFlux:     flux,
		ZeroCrossingRate: zcr,
		FrequencyBands:   bands,
		InstantTempo:     tempo,
		T:                t,
	}
}

func (e *Extractor) rms(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// bands computes NumBands logarithmically spaced magnitude-spectrum energies
// between ~20 Hz and Nyquist using a real FFT.
func (e *Extractor) bands(samples []float32) [NumBands]float64 {
	windowed := make([]float64, e.chunkSize)
	for i, s := range samples {
		windowed[i] = float64(s) * e.window[i]
	}

	coeffs := e.fft.Coefficients(nil, windowed)
	nyquist := float64(e.sampleRate) / 2.0
	minFreq := 20.0

	var out [NumBands]float64
	logMin := math.Log(minFreq)
	logMax := math.Log(nyquist)

	for b := 0; b < NumBands; b++ {
		loFreq := math.Exp(logMin + (logMax-logMin)*float64(b)/float64(NumBands))
		hiFreq := math.Exp(logMin + (logMax-logMin)*float64(b+1)/float64(NumBands))

		loBin := freqToBin(loFreq, e.sampleRate, e.chunkSize)
		hiBin := freqToBin(hiFreq, e.sampleRate, e.chunkSize)
		if hiBin > len(coeffs) {
			hiBin = len(coeffs)
		}
		if loBin >= hiBin {
			continue
		}

		var energy float64
		for i := loBin; i < hiBin; i++ {
			energy += cmplxAbs(coeffs[i])
		}
		out[b] = clamp01(energy / float64(hiBin-loBin))
	}
	return out
}

func (e *Extractor) centroid(bands [NumBands]float64) float64 {
	var weighted, total float64
	for i, b := range bands {
		weighted += float64(i) * b
		total += b
	}
	if total <= 0 {
		return 0.5
	}
	return weighted / total / float64(NumBands)
}

func (e *Extractor) flux(bands [NumBands]float64) float64 {
	var sum float64
	for i, b := range bands {
		diff := b - e.prevBands[i]
		if diff > 0 {
			sum += diff
		}
	}
	return sum / float64(NumBands)
}

func (e *Extractor) zeroCrossingRate(samples []float32) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// detectBeat is an adaptive-threshold detector: flag a beat when current
// energy exceeds beatThreshold times the mean of the last beatHistoryLen
// samples, with a 100ms refractory period.
func (e *Extractor) detectBeat(energy float64, t float64) (bool, float64) {
	e.energyHist = append(e.energyHist, energy)
	if len(e.energyHist) > beatHistoryLen {
		e.energyHist = e.energyHist[1:]
	}

	var sum float64
	for _, v := range e.energyHist {
		sum += v
	}
	avg := sum / float64(len(e.energyHist))
	if avg <= 0 {
		return false, 0
	}

	sinceLast := (t - e.lastBeatTime) * 1000.0
	isBeat := energy > avg*beatThreshold && (!e.firstBeat || sinceLast > beatRefractorMs)
	if !isBeat {
		return false, 0
	}

	e.firstBeat = true
	e.lastBeatTime = t
	ratio := energy/avg - 1.0
	return true, clamp01(ratio / 0.5)
}

// updateTempoEstimate derives an instantaneous BPM from the interval between
// the two most recent detected beats. Returns 0 when fewer than two beats
// have been observed, or when the implied tempo falls outside [40, 220].
func (e *Extractor) updateTempoEstimate(isBeat bool, t float64) float64 {
	if !isBeat {
		return 0
	}
	if !e.haveLastMark {
		e.lastBeatMark = t
		e.haveLastMark = true
		return 0
	}
	interval := t - e.lastBeatMark
	e.lastBeatMark = t
	if interval <= 0 {
		return 0
	}
	bpm := 60.0 / interval
	if bpm < 40 || bpm > 220 {
		return 0
	}
	return bpm
}

func freqToBin(freq float64, sampleRate, n int) int {
	bin := int(freq * float64(n) / float64(sampleRate))
	if bin < 0 {
		return 0
	}
	return bin
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func meanRange(v []float64, lo, hi int) float64 {
	if hi > len(v) {
		hi = len(v)
	}
	if lo >= hi {
		return 0
	}
	var sum float64
	for i := lo; i < hi; i++ {
		sum += v[i]
	}
	return sum / float64(hi-lo)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, -1) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 || math.IsInf(v, 1) {
		return 1
	}
	return v
}
