package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/synesthesia/pkg/audiosrc"
	"github.com/opd-ai/synesthesia/pkg/config"
	"github.com/opd-ai/synesthesia/pkg/engine"
)

var (
	synthPath  = flag.String("synth", "", "path to a .synth artifact to load (optional)")
	wavPath    = flag.String("wav", "", "path to a WAV file to use as the audio source (default: a 440Hz test tone)")
	styleName  = flag.String("style", "", "style profile name to switch to at startup (overrides config default)")
	logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	metricsSec = flag.Float64("metrics-interval", 5.0, "seconds between metrics log lines")
)

func main() {
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if err := config.Load(); err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	cfg := config.Get()

	logrus.WithFields(logrus.Fields{
		"sample_rate": cfg.SampleRate,
		"chunk_size":  cfg.ChunkSize,
		"style":       cfg.DefaultStyle,
	}).Info("starting synesthesia engine")

	e := engine.New(cfg)

	if *synthPath != "" {
		if err := e.LoadSynth(*synthPath); err != nil {
			logrus.WithError(err).Fatal("failed to load .synth artifact")
		}
		logrus.WithField("path", *synthPath).Info("loaded .synth artifact")
	}

	if *styleName != "" {
		if err := e.SetStyle(*styleName); err != nil {
			logrus.WithError(err).Fatal("failed to set style")
		}
	}

	if err := installAudioSource(e, cfg); err != nil {
		logrus.WithError(err).Fatal("failed to install audio source")
	}

	e.Play()

	stop := make(chan struct{})
	go runProducer(e, stop)
	go runAnalyzer(e, stop)
	go logMetrics(e, *metricsSec, stop)

	runRenderLoop(e, cfg, stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutdown signal received, stopping engine")
	close(stop)
	logrus.Info("engine stopped")
}

func installAudioSource(e *engine.Engine, cfg config.Config) error {
	if *wavPath != "" {
		f, err := os.Open(*wavPath)
		if err != nil {
			return err
		}
		defer f.Close()
		return e.SetAudioSource(engine.AudioSourceSpec{Kind: engine.SourceFile, File: f})
	}
	return e.SetAudioSource(engine.AudioSourceSpec{Kind: engine.SourceTestSignal, Waveform: audiosrc.Sine, Frequency: 440})
}

// runProducer drains the installed audio source into the ring buffer — the
// audio producer role — until the source is exhausted or stop is closed.
func runProducer(e *engine.Engine, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		done, err := e.PumpAudio()
		if err != nil {
			logrus.WithError(err).Warn("audio pump failed")
			return
		}
		if done {
			return
		}
	}
}

// runAnalyzer repeatedly drains whatever full chunks are available in the
// ring buffer — the analysis worker role — retrying on underrun.
func runAnalyzer(e *engine.Engine, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for e.AnalyzeChunk() {
			}
		}
	}
}

// runRenderLoop drives the render driver role at cfg.MaxTPS until stop is
// closed, returning control to main for signal handling.
func runRenderLoop(e *engine.Engine, cfg config.Config, stop <-chan struct{}) {
	tps := cfg.MaxTPS
	if tps <= 0 {
		tps = 60
	}
	go func() {
		dt := 1.0 / float64(tps)
		ticker := time.NewTicker(time.Duration(float64(time.Second) / float64(tps)))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.NextFrame(dt)
			}
		}
	}()
}

func logMetrics(e *engine.Engine, intervalSec float64, stop <-chan struct{}) {
	if intervalSec <= 0 {
		intervalSec = 5.0
	}
	ticker := time.NewTicker(time.Duration(intervalSec * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m := e.GetMetrics()
			logrus.WithFields(logrus.Fields{
				"features_published":   m.FeaturesPublished,
				"frames_emitted":       m.FramesEmitted,
				"avg_chunk_latency_ms": m.AvgChunkLatencyMs,
				"buffer_current_fill":  m.BufferStats.CurrentFill,
				"buffer_overflow":      m.BufferStats.Overflow,
				"buffer_underflow":     m.BufferStats.Underflow,
			}).Info("engine metrics")
		}
	}
}
