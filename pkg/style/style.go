// Package style implements the style profile catalog: a keyed set of
// hand-authored, immutable StyleProfile constants plus a genre-to-profile
// selector, grounded on the teacher's pkg/procgen/genre.FantasyParams
// parameter-set pattern.
package style

// Architecture is the world generator's structural vocabulary for a style.
type Architecture int

const (
	Cathedral Architecture = iota
	Grid
	Club
	Spires
	Void
	Organic
	Crystalline
)

// BeatShape is the geometry kind spawned on beat-reactive elements.
type BeatShape int

const (
	Sphere BeatShape = iota
	Cube
	Prism
	Shard
	Wisp
)

// HSL is a hue/saturation/lightness color, hue in degrees, saturation and
// lightness in [0,1].
type HSL struct {
	H, S, L float64
}

// Palette is the six-color set a StyleProfile contributes to materials.
type Palette struct {
	Primary    HSL
	Secondary  HSL
	Accent     HSL
	Background HSL
	Highlight  HSL
	Shadow     HSL
}

// Profile is an immutable, fully-specified visual treatment for one genre:
// its palette, architectural vocabulary, and reactive defaults.
type Profile struct {
	Name             string
	Palette          Palette
	Architecture     Architecture
	BeatShape        BeatShape
	FogEnabled       bool
	FogDensity       float64
	ParticlesEnabled bool
	ParticleDensity  float64
	Intensity        float64
}

// Catalog names for the built-in profile set.
const (
	Classical = "classical"
	Electronic = "electronic"
	Jazz       = "jazz"
	Metal      = "metal"
	Ambient    = "ambient"
)

// catalog is the compiled-in, hand-authored profile set. Values are pure
// constants; Profile is never mutated after construction.
var catalog = map[string]Profile{
	Classical: {
		Name: Classical,
		Palette: Palette{
			Primary:    HSL{40, 0.25, 0.85},  // marble white-gold
			Secondary:  HSL{30, 0.2, 0.7},
			Accent:     HSL{45, 0.6, 0.6},
			Background: HSL{220, 0.15, 0.12},
			Highlight:  HSL{50, 0.7, 0.9},
			Shadow:     HSL{230, 0.2, 0.08},
		},
		Architecture:     Cathedral,
		BeatShape:        Sphere,
		FogEnabled:       true,
		FogDensity:       0.3,
		ParticlesEnabled: true,
		ParticleDensity:  0.2,
		Intensity:        0.5,
	},
	Electronic: {
		Name: Electronic,
		Palette: Palette{
			Primary:    HSL{300, 0.9, 0.55}, // neon magenta
			Secondary:  HSL{190, 0.9, 0.5},  // neon cyan
			Accent:     HSL{60, 1.0, 0.5},
			Background: HSL{260, 0.6, 0.05},
			Highlight:  HSL{320, 1.0, 0.7},
			Shadow:     HSL{250, 0.5, 0.03},
		},
		Architecture:     Grid,
		BeatShape:        Cube,
		FogEnabled:       false,
		FogDensity:       0.0,
		ParticlesEnabled: true,
		ParticleDensity:  0.8,
		Intensity:        0.8,
	},
	Jazz: {
		Name: Jazz,
		Palette: Palette{
			Primary:    HSL{25, 0.5, 0.35},  // warm wood
			Secondary:  HSL{35, 0.45, 0.45},
			Accent:     HSL{45, 0.6, 0.55},
			Background: HSL{20, 0.3, 0.1},
			Highlight:  HSL{40, 0.55, 0.65},
			Shadow:     HSL{15, 0.35, 0.06},
		},
		Architecture:     Club,
		BeatShape:        Prism,
		FogEnabled:       true,
		FogDensity:       0.15,
		ParticlesEnabled: true,
		ParticleDensity:  0.15,
		Intensity:        0.4,
	},
	Metal: {
		Name: Metal,
		Palette: Palette{
			Primary:    HSL{0, 0.8, 0.35},   // volcanic red
			Secondary:  HSL{15, 0.7, 0.25},
			Accent:     HSL{30, 0.9, 0.5},
			Background: HSL{0, 0.2, 0.04},
			Highlight:  HSL{20, 0.95, 0.6},
			Shadow:     HSL{0, 0.3, 0.02},
		},
		Architecture:     Spires,
		BeatShape:        Shard,
		FogEnabled:       true,
		FogDensity:       0.4,
		ParticlesEnabled: true,
		ParticleDensity:  0.3,
		Intensity:        0.95,
	},
	Ambient: {
		Name: Ambient,
		Palette: Palette{
			Primary:    HSL{200, 0.3, 0.7},  // ethereal pale blue
			Secondary:  HSL{250, 0.25, 0.6},
			Accent:     HSL{180, 0.4, 0.8},
			Background: HSL{230, 0.25, 0.1},
			Highlight:  HSL{190, 0.35, 0.9},
			Shadow:     HSL{240, 0.2, 0.05},
		},
		Architecture:     Void,
		BeatShape:        Wisp,
		FogEnabled:       true,
		FogDensity:       0.6,
		ParticlesEnabled: true,
		ParticleDensity:  0.5,
		Intensity:        0.25,
	},
}

// Get returns the named profile, or Ambient (the lowest-intensity default)
// if name is not in the catalog.
func Get(name string) Profile {
	if p, ok := catalog[name]; ok {
		return p
	}
	return catalog[Ambient]
}

// Names returns the catalog's profile names.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	return names
}

// genreAliases maps a detected or declared genre label to a catalog name,
// grounded on the teacher's pkg/procgen/genre registry pattern.
var genreAliases = map[string]string{
	"classical": Classical,
	"orchestral": Classical,
	"electronic": Electronic,
	"edm":        Electronic,
	"techno":     Electronic,
	"house":      Electronic,
	"jazz":       Jazz,
	"swing":      Jazz,
	"metal":      Metal,
	"rock":       Metal,
	"ambient":    Ambient,
	"drone":      Ambient,
}

// SelectForGenre maps a detected or user-declared genre label to a profile
// name, falling back to Ambient for anything unrecognized.
func SelectForGenre(genre string) string {
	if name, ok := genreAliases[genre]; ok {
		return name
	}
	return Ambient
}
