// Command synthctl inspects ".synth" artifacts: decode a path, validate it
// against pkg/synthfile's structural rules, and dump a human-readable (or
// JSON) summary of its analysis/video/transition/style sections. It has no
// GPU or window dependency, matching SPEC_FULL.md's scope for this tool.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/synesthesia/pkg/synthfile"
)

type summary struct {
	Path            string  `json:"path"`
	DurationSecs    float64 `json:"duration_secs"`
	SampleRate      uint32  `json:"sample_rate"`
	AudioHash       string  `json:"audio_hash"`
	Key             string  `json:"key"`
	Mode            string  `json:"mode"`
	KeyConfidence   float32 `json:"key_confidence"`
	Tempo           float32 `json:"tempo"`
	TempoConfidence float32 `json:"tempo_confidence"`
	BeatCount       int     `json:"beat_count"`
	DownbeatCount   int     `json:"downbeat_count"`
	ChordCount      int     `json:"chord_count"`
	SectionCount    int     `json:"section_count"`
	ClimaxCount     int     `json:"climax_count"`
	EmotionPoints   int     `json:"emotion_points"`
	VideoSegments   int     `json:"video_segments"`
	Transitions     int     `json:"transitions"`
	HasShaderCurves bool    `json:"has_shader_curves"`
	StyleName       string  `json:"style_name"`
}

func main() {
	jsonOut := flag.Bool("json", false, "emit the summary as JSON instead of plain text")
	verbose := flag.Bool("v", false, "log decode/validation steps to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-json] [-v] <path.synth>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if err := run(path, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "synthctl: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, jsonOut bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	f, err := synthfile.Load(data)
	if err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}

	s := summary{
		Path:            path,
		DurationSecs:    f.Analysis.Duration,
		SampleRate:      f.Analysis.SampleRate,
		AudioHash:       f.Analysis.AudioHash,
		Key:             f.Analysis.Key,
		Mode:            f.Analysis.Mode,
		KeyConfidence:   f.Analysis.KeyConfidence,
		Tempo:           f.Analysis.Tempo,
		TempoConfidence: f.Analysis.TempoConfidence,
		BeatCount:       len(f.Analysis.Beats),
		DownbeatCount:   len(f.Analysis.Downbeats),
		ChordCount:      len(f.Analysis.Chords),
		SectionCount:    len(f.Analysis.Sections),
		ClimaxCount:     len(f.Analysis.Climaxes),
		EmotionPoints:   len(f.Analysis.EmotionArc),
		VideoSegments:   len(f.VideoSegs),
		Transitions:     len(f.Transitions),
		HasShaderCurves: f.ShaderCurves != nil,
		StyleName:       f.StyleName,
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Printf("path:              %s\n", s.Path)
	fmt.Printf("duration:          %.2fs\n", s.DurationSecs)
	fmt.Printf("sample_rate:       %d\n", s.SampleRate)
	fmt.Printf("audio_hash:        %s\n", s.AudioHash)
	fmt.Printf("key:               %s %s (confidence %.2f)\n", s.Key, s.Mode, s.KeyConfidence)
	fmt.Printf("tempo:             %.1f bpm (confidence %.2f)\n", s.Tempo, s.TempoConfidence)
	fmt.Printf("beats:             %d (%d downbeats)\n", s.BeatCount, s.DownbeatCount)
	fmt.Printf("chords:            %d\n", s.ChordCount)
	fmt.Printf("sections:          %d\n", s.SectionCount)
	fmt.Printf("climaxes:          %d\n", s.ClimaxCount)
	fmt.Printf("emotion_points:    %d\n", s.EmotionPoints)
	fmt.Printf("video_segments:    %d\n", s.VideoSegments)
	fmt.Printf("transitions:       %d\n", s.Transitions)
	fmt.Printf("shader_curves:     %v\n", s.HasShaderCurves)
	fmt.Printf("style:             %s\n", s.StyleName)
	return nil
}
