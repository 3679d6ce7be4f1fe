package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/synesthesia/pkg/synthfile"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	f := synthfile.File{
		Version: [2]uint8{1, 0},
		Analysis: synthfile.MusicAnalysis{
			Duration:        120.0,
			SampleRate:      44100,
			AudioHash:       "test-hash",
			Key:             "C",
			Mode:            "major",
			KeyConfidence:   0.8,
			Tempo:           120,
			TempoConfidence: 0.9,
			Beats:           []float64{0.5, 1.0, 1.5},
			Downbeats:       []float64{0.5},
			Sections: []synthfile.Section{
				{Type: "verse", Start: 0, End: 30, Energy: 0.5, Repetition: 1, Confidence: 0.7},
			},
			Climaxes: []synthfile.ClimaxPoint{
				{Time: 60, Intensity: 0.9, Type: "drop"},
			},
		},
		StyleName: "ambient",
	}

	var buf bytes.Buffer
	if err := synthfile.Write(&buf, f); err != nil {
		t.Fatalf("synthfile.Write() error = %v", err)
	}

	path := filepath.Join(dir, "fixture.synth")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRunPlainText(t *testing.T) {
	path := writeFixture(t, t.TempDir())
	if err := run(path, false); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRunJSON(t *testing.T) {
	path := writeFixture(t, t.TempDir())
	if err := run(path, true); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	if err := run(filepath.Join(t.TempDir(), "missing.synth"), false); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestRunInvalidArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.synth")
	if err := os.WriteFile(path, []byte("not a synth file"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(path, false); err == nil {
		t.Fatalf("expected error for an invalid artifact")
	}
}
