package style

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// profileFixture mirrors the hand-authored YAML catalog fixture below:
// an independent, human-editable description of each built-in profile's
// defining characteristics, checked against the compiled-in catalog so a
// drifted constant (wrong architecture, wrong beat shape, a palette edit
// that silently blands out a genre) fails a test instead of shipping quiet.
type profileFixture struct {
	Name             string  `yaml:"name"`
	Architecture     string  `yaml:"architecture"`
	BeatShape        string  `yaml:"beat_shape"`
	PrimaryHue       float64 `yaml:"primary_hue"`
	FogEnabled       bool    `yaml:"fog_enabled"`
	ParticlesEnabled bool    `yaml:"particles_enabled"`
	Intensity        float64 `yaml:"intensity"`
}

const catalogFixtureYAML = `
- name: classical
  architecture: cathedral
  beat_shape: sphere
  primary_hue: 40
  fog_enabled: true
  particles_enabled: true
  intensity: 0.5
- name: electronic
  architecture: grid
  beat_shape: cube
  primary_hue: 300
  fog_enabled: false
  particles_enabled: true
  intensity: 0.8
- name: jazz
  architecture: club
  beat_shape: prism
  primary_hue: 25
  fog_enabled: true
  particles_enabled: true
  intensity: 0.4
- name: metal
  architecture: spires
  beat_shape: shard
  primary_hue: 0
  fog_enabled: true
  particles_enabled: true
  intensity: 0.95
- name: ambient
  architecture: void
  beat_shape: wisp
  primary_hue: 200
  fog_enabled: true
  particles_enabled: true
  intensity: 0.25
`

var fixtureArchitectures = map[string]Architecture{
	"cathedral":   Cathedral,
	"grid":        Grid,
	"club":        Club,
	"spires":      Spires,
	"void":        Void,
	"organic":     Organic,
	"crystalline": Crystalline,
}

var fixtureBeatShapes = map[string]BeatShape{
	"sphere": Sphere,
	"cube":   Cube,
	"prism":  Prism,
	"shard":  Shard,
	"wisp":   Wisp,
}

// TestCatalogMatchesYAMLFixture parses catalogFixtureYAML and checks every
// entry against the compiled-in Profile it names, catching drift between
// the two without requiring the catalog itself to be YAML-driven at
// runtime.
func TestCatalogMatchesYAMLFixture(t *testing.T) {
	var fixtures []profileFixture
	if err := yaml.Unmarshal([]byte(catalogFixtureYAML), &fixtures); err != nil {
		t.Fatalf("failed to parse catalog fixture: %v", err)
	}
	if len(fixtures) != len(Names()) {
		t.Fatalf("fixture lists %d profiles, catalog has %d", len(fixtures), len(Names()))
	}

	for _, f := range fixtures {
		p := Get(f.Name)
		if p.Name != f.Name {
			t.Errorf("%s: not found in catalog", f.Name)
			continue
		}
		if wantArch, ok := fixtureArchitectures[f.Architecture]; !ok {
			t.Errorf("%s: fixture names unknown architecture %q", f.Name, f.Architecture)
		} else if p.Architecture != wantArch {
			t.Errorf("%s: Architecture = %v, fixture wants %v", f.Name, p.Architecture, wantArch)
		}
		if wantShape, ok := fixtureBeatShapes[f.BeatShape]; !ok {
			t.Errorf("%s: fixture names unknown beat shape %q", f.Name, f.BeatShape)
		} else if p.BeatShape != wantShape {
			t.Errorf("%s: BeatShape = %v, fixture wants %v", f.Name, p.BeatShape, wantShape)
		}
		if p.Palette.Primary.H != f.PrimaryHue {
			t.Errorf("%s: Palette.Primary.H = %v, fixture wants %v", f.Name, p.Palette.Primary.H, f.PrimaryHue)
		}
		if p.FogEnabled != f.FogEnabled {
			t.Errorf("%s: FogEnabled = %v, fixture wants %v", f.Name, p.FogEnabled, f.FogEnabled)
		}
		if p.ParticlesEnabled != f.ParticlesEnabled {
			t.Errorf("%s: ParticlesEnabled = %v, fixture wants %v", f.Name, p.ParticlesEnabled, f.ParticlesEnabled)
		}
		if p.Intensity != f.Intensity {
			t.Errorf("%s: Intensity = %v, fixture wants %v", f.Name, p.Intensity, f.Intensity)
		}
	}
}
