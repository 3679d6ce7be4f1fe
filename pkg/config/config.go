// Package config handles loading, validating, and hot-reloading the
// engine's StreamConfig and render-adjacent settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds the engine's audio stream settings plus the render/style
// defaults the engine facade reads at startup.
type Config struct {
	SampleRate      int     `mapstructure:"SampleRate"`
	Channels        int     `mapstructure:"Channels"`
	ChunkSize       int     `mapstructure:"ChunkSize"`
	BufferCapacity  int     `mapstructure:"BufferCapacity"`
	AutoGain        bool    `mapstructure:"AutoGain"`
	TargetRMS       float64 `mapstructure:"TargetRMS"`

	DefaultStyle    string  `mapstructure:"DefaultStyle"`
	ClimaxTolerance float64 `mapstructure:"ClimaxTolerance"`
	ChunkWindowBack    float64 `mapstructure:"ChunkWindowBack"`
	ChunkWindowForward float64 `mapstructure:"ChunkWindowForward"`

	MaxTPS int `mapstructure:"MaxTPS"`
}

// C is the global configuration instance.
var C Config

// mu protects concurrent access to C during hot-reload.
var mu sync.RWMutex

var (
	watcherMu       sync.Mutex
	watcherActive   bool
	watcherCtx      context.Context
	watcherCancel   context.CancelFunc
	currentCallback ReloadCallback
)

// ReloadCallback is called when the configuration is hot-reloaded.
type ReloadCallback func(old, new Config)

// LatencyMs returns 1000·chunk_size/sample_rate, the pipeline's end-to-end
// chunk latency figure.
func (c Config) LatencyMs() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return 1000.0 * float64(c.ChunkSize) / float64(c.SampleRate)
}

// Validate enforces the stream settings' range invariants, including the
// 25ms low-latency bound. A configuration error here is fatal only to the
// operation that triggered it, never a panic.
func (c Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("config: sample_rate %d out of [8000, 192000]", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("config: channels %d out of [1, 8]", c.Channels)
	}
	if c.ChunkSize < 64 || c.ChunkSize > 8192 {
		return fmt.Errorf("config: chunk_size %d out of [64, 8192]", c.ChunkSize)
	}
	if c.BufferCapacity < 2*c.ChunkSize {
		return fmt.Errorf("config: buffer_capacity %d must be >= 2*chunk_size (%d)", c.BufferCapacity, 2*c.ChunkSize)
	}
	if c.TargetRMS < 0 || c.TargetRMS > 1 {
		return fmt.Errorf("config: target_rms %f out of [0, 1]", c.TargetRMS)
	}
	if c.LatencyMs() > 25 {
		return fmt.Errorf("config: latency %.2fms exceeds the 25ms low-latency bound", c.LatencyMs())
	}
	return nil
}

// Load reads configuration from file and environment, populating C, then
// validates it.
func Load() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.synesthesia")

	viper.SetDefault("SampleRate", 44100)
	viper.SetDefault("Channels", 2)
	viper.SetDefault("ChunkSize", 512)
	viper.SetDefault("BufferCapacity", 4096)
	viper.SetDefault("AutoGain", true)
	viper.SetDefault("TargetRMS", 0.2)
	viper.SetDefault("DefaultStyle", "ambient")
	viper.SetDefault("ClimaxTolerance", 0.5)
	viper.SetDefault("ChunkWindowBack", 8.0)
	viper.SetDefault("ChunkWindowForward", 24.0)
	viper.SetDefault("MaxTPS", 60)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	var loaded Config
	if err := viper.Unmarshal(&loaded); err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	mu.Lock()
	C = loaded
	mu.Unlock()
	return nil
}

// Save writes the current configuration to file.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	viper.Set("SampleRate", C.SampleRate)
	viper.Set("Channels", C.Channels)
	viper.Set("ChunkSize", C.ChunkSize)
	viper.Set("BufferCapacity", C.BufferCapacity)
	viper.Set("AutoGain", C.AutoGain)
	viper.Set("TargetRMS", C.TargetRMS)
	viper.Set("DefaultStyle", C.DefaultStyle)
	viper.Set("ClimaxTolerance", C.ClimaxTolerance)
	viper.Set("ChunkWindowBack", C.ChunkWindowBack)
	viper.Set("ChunkWindowForward", C.ChunkWindowForward)
	viper.Set("MaxTPS", C.MaxTPS)

	return viper.WriteConfig()
}

// Watch starts watching the config file for changes and calls callback on
// reload with a validated config; an invalid reload is dropped with the
// previous config left in place. Only one watcher can be active at a time.
func Watch(callback ReloadCallback) (stop func(), err error) {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if !watcherActive {
		ctx, cancel := context.WithCancel(context.Background())
		watcherCtx = ctx
		watcherCancel = cancel
		currentCallback = callback
		watcherActive = true

		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			watcherMu.Lock()
			cb := currentCallback
			ctx := watcherCtx
			watcherMu.Unlock()

			if ctx != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
			}

			var newCfg Config
			if err := viper.Unmarshal(&newCfg); err != nil {
				return
			}
			if err := newCfg.Validate(); err != nil {
				return
			}

			mu.Lock()
			old := C
			C = newCfg
			mu.Unlock()
			if cb != nil {
				cb(old, newCfg)
			}
		})
	} else {
		currentCallback = callback
	}

	return func() {
		watcherMu.Lock()
		defer watcherMu.Unlock()
		if watcherCancel != nil {
			watcherCancel()
			watcherCancel = nil
			watcherCtx = nil
		}
		watcherActive = false
		currentCallback = nil
	}, nil
}

// Get returns a copy of the current config safely.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return C
}

// Set validates and installs cfg, rejecting it without mutating C if
// invalid.
func Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mu.Lock()
	C = cfg
	mu.Unlock()
	return nil
}
