// Package world implements the world generator: it turns the
// MusicUnderstanding/StyleProfile stream into a chunked, content-addressable
// 3D scene graph using deterministic seeded placement, grounded on the
// teacher's pkg/rng seeded-source pattern.
package world

import (
	"hash/fnv"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/synesthesia/pkg/rng"
	"github.com/opd-ai/synesthesia/pkg/structure"
	"github.com/opd-ai/synesthesia/pkg/style"
	"github.com/opd-ai/synesthesia/pkg/theory"
)

// Vec3 is a 3D vector/point.
type Vec3 struct{ X, Y, Z float64 }

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// AABB is an axis-aligned bounding box.
type AABB struct{ Min, Max Vec3 }

// Grow expands b to contain p, returning the updated box.
func (b AABB) Grow(p Vec3) AABB {
	return AABB{
		Min: Vec3{min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z)},
		Max: Vec3{max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z)},
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Affine3 is a translation/rotation(Euler degrees)/scale transform.
type Affine3 struct {
	Translation Vec3
	RotationDeg Vec3
	Scale       Vec3
}

// Identity returns an Affine3 at origin with unit scale.
func Identity() Affine3 {
	return Affine3{Scale: Vec3{1, 1, 1}}
}

// RGBA is a linear color with alpha, components in [0,1].
type RGBA struct{ R, G, B, A float64 }

// PbrMaterial is the physically-based material record attached to a
// SceneElement.
type PbrMaterial struct {
	BaseColor      RGBA
	Metallic       float64
	Roughness      float64
	Emission       RGBA
	EmissionStr    float64
	NormalStrength float64
	AOStrength     float64
}

// Kind is the SceneElement category.
type Kind int

const (
	Landmark Kind = iota
	Structure
	Ambient
	Decoration
	Geometry
)

// Lifetime controls whether an element persists for the chunk's life or
// decays over a fixed duration.
type Lifetime struct {
	Persistent bool
	Decay      float64 // seconds, meaningful only when !Persistent
}

// SceneElement is a single placed object in a WorldChunk.
type SceneElement struct {
	ID        string
	Kind      Kind
	MeshRef   string
	Transform Affine3
	Material  PbrMaterial
	Lifetime  Lifetime
}

// WorldChunk is the spatial footprint of one segment of the track. Chunks
// are owned and mutated only by Generator.
type WorldChunk struct {
	Origin   Vec3
	Bounds   AABB
	Elements []SceneElement
	TBegin   float64
	TEnd     float64

	sectionIndex int
}

// DefaultChunkDuration is the fixed-duration chunking fallback used when no
// SynthFile section boundaries are available.
const DefaultChunkDuration = 8.0

// DefaultMaxElementsPerChunk bounds per-chunk memory so a dense section
// can't grow a chunk without limit.
const DefaultMaxElementsPerChunk = 256

// timelineAxisStep is the spatial distance a chunk's origin advances per
// second of track time, so that distance-along-axis monotonically encodes
// time.
const timelineAxisStep = 4.0

// Generator incrementally builds WorldChunks from a live event stream:
// section starts, downbeats, chord changes, beats, and per-tick ambient
// ticks. Placement is a pure function of (audioHash, sectionIndex, counter)
// so regenerating from the same SynthFile and StyleProfile reproduces an
// identical scene.
type Generator struct {
	audioHash           string
	profile             style.Profile
	maxElementsPerChunk int

	finished []WorldChunk
	current  *WorldChunk
	counter  map[int]int // per-section element counter, keyed by section index

	logger *logrus.Entry
}

// NewGenerator creates a Generator for a given audio stream identity and
// style. audioHash pins generated placement to a specific audio source.
func NewGenerator(audioHash string, profile style.Profile) *Generator {
	return &Generator{
		audioHash:           audioHash,
		profile:             profile,
		maxElementsPerChunk: DefaultMaxElementsPerChunk,
		counter:             make(map[int]int),
		logger:              logrus.WithField("component", "world"),
	}
}

// Chunks returns the finalized chunks so far; callers must not mutate them.
func (g *Generator) Chunks() []WorldChunk { return g.finished }

// SetProfile updates the style profile used for elements placed from this
// point forward; already-finalized elements keep the colors/meshes they
// were placed with.
func (g *Generator) SetProfile(p style.Profile) {
	g.profile = p
}

// Current returns the in-progress chunk, or nil if none is open.
func (g *Generator) Current() *WorldChunk { return g.current }

// BeginChunk opens a new chunk for sectionIndex, closing any chunk already
// in progress first.
func (g *Generator) BeginChunk(sectionIndex int, tBegin, tEnd float64) {
	if g.current != nil {
		g.FinishChunk()
	}
	origin := Vec3{X: tBegin * timelineAxisStep}
	g.current = &WorldChunk{
		Origin:       origin,
		Bounds:       AABB{Min: origin, Max: origin},
		TBegin:       tBegin,
		TEnd:         tEnd,
		sectionIndex: sectionIndex,
	}
}

// FinishChunk closes the in-progress chunk, appending it to Chunks.
func (g *Generator) FinishChunk() {
	if g.current == nil {
		return
	}
	g.finished = append(g.finished, *g.current)
	g.current = nil
}

// place appends element to the current chunk if under the per-chunk cap,
// growing the chunk's bounds to contain its position. No element straddles
// a chunk boundary on the timeline axis because placement always happens
// relative to the currently open chunk.
func (g *Generator) place(kind Kind, meshRef string, pos Vec3, mat PbrMaterial, lifetime Lifetime) {
	if g.current == nil {
		return
	}
	if len(g.current.Elements) >= g.maxElementsPerChunk {
		g.logger.WithField("section", g.current.sectionIndex).Debug("element cap reached, dropping placement")
		return
	}
	sectionIdx := g.current.sectionIndex
	elemIdx := g.counter[sectionIdx]
	g.counter[sectionIdx] = elemIdx + 1

	r := g.seededRNG(sectionIdx, elemIdx)
	jitter := Vec3{
		X: r.Jitter(1.0),
		Y: r.Unit() * 1.5,
		Z: r.Jitter(1.0),
	}
	world := pos.Add(jitter)

	id := g.elementID(sectionIdx, elemIdx)
	transform := Identity()
	transform.Translation = world

	elem := SceneElement{
		ID:        id,
		Kind:      kind,
		MeshRef:   meshRef,
		Transform: transform,
		Material:  mat,
		Lifetime:  lifetime,
	}
	g.current.Elements = append(g.current.Elements, elem)
	if len(g.current.Elements) == 1 {
		g.current.Bounds = AABB{Min: world, Max: world}
	} else {
		g.current.Bounds = g.current.Bounds.Grow(world)
	}
}

// OnSectionStart spawns a Landmark once per section of repetition 1.
func (g *Generator) OnSectionStart(section structure.Section) {
	if section.Repetition != 1 {
		return
	}
	pos := Vec3{X: g.currentX(), Y: 4, Z: 0}
	mat := PbrMaterial{
		BaseColor:   hslToRGBA(g.profile.Palette.Primary),
		Emission:    hslToRGBA(g.profile.Palette.Primary),
		EmissionStr: section.Energy,
		Roughness:   0.5,
	}
	g.place(Landmark, "landmark", pos, mat, Lifetime{Persistent: true})
}

// OnDownbeat spawns a Structure element, roughness inversely tracking
// timbre brightness.
func (g *Generator) OnDownbeat(timbreBrightness float64) {
	pos := Vec3{X: g.currentX(), Y: 0, Z: 2}
	mat := PbrMaterial{
		BaseColor: hslToRGBA(g.profile.Palette.Secondary),
		Roughness: clamp01(1 - timbreBrightness),
	}
	g.place(Structure, architectureMesh(g.profile.Architecture), pos, mat, Lifetime{Persistent: true})
}

// OnChordChange spawns a Decoration element on harmonic change.
func (g *Generator) OnChordChange(chord theory.Chord, mode theory.Mode) {
	pos := Vec3{X: g.currentX(), Y: 1, Z: -2}
	hue := chord.Type.Tension() * 360.0
	mat := PbrMaterial{
		BaseColor: hslToRGBA(style.HSL{H: hue, S: 0.7, L: 0.5}),
		Metallic:  boolToF(mode.IsBright()),
	}
	g.place(Decoration, "decoration", pos, mat, Lifetime{Persistent: false, Decay: 4.0})
}

// TickAmbient spawns a continuous ambient particle-style element, called at
// a throttled cadence by the caller (e.g. once per second of track time).
func (g *Generator) TickAmbient() {
	pos := Vec3{X: g.currentX(), Y: 2, Z: 0}
	c := hslToRGBA(g.profile.Palette.Accent)
	c.A = 0.4
	mat := PbrMaterial{
		BaseColor:   c,
		Emission:    hslToRGBA(g.profile.Palette.Accent),
		EmissionStr: 0.3,
	}
	g.place(Ambient, "ambient_particle", pos, mat, Lifetime{Persistent: false, Decay: 2.0})
}

// OnBeat spawns a beat-reactive Geometry element scaled by beat intensity.
func (g *Generator) OnBeat(beatIntensity float64) {
	pos := Vec3{X: g.currentX(), Y: 3, Z: 1}
	mat := PbrMaterial{
		BaseColor:   hslToRGBA(g.profile.Palette.Highlight),
		Emission:    hslToRGBA(g.profile.Palette.Highlight),
		EmissionStr: beatIntensity,
	}
	scale := 0.5 + beatIntensity
	before := 0
	if g.current != nil {
		before = len(g.current.Elements)
	}
	g.place(Geometry, beatShapeMesh(g.profile.BeatShape), pos, mat, Lifetime{Persistent: false, Decay: 0.3})
	if g.current != nil && len(g.current.Elements) > before {
		g.current.Elements[len(g.current.Elements)-1].Transform.Scale = Vec3{scale, scale, scale}
	}
}

func (g *Generator) currentX() float64 {
	if g.current == nil {
		return 0
	}
	return g.current.Origin.X
}

// seededRNG derives a deterministic source from (audioHash, sectionIndex,
// elementCounter) so regenerating the same track always places the same
// element in the same spot.
func (g *Generator) seededRNG(sectionIndex, counter int) *rng.Source {
	h := fnv.New64a()
	h.Write([]byte(g.audioHash))
	writeInt(h, sectionIndex)
	writeInt(h, counter)
	return rng.New(int64(h.Sum64()))
}

// elementID derives a stable, content-addressable identifier so the same
// (audioHash, sectionIndex, counter) triple always yields the same ID
// across regenerations.
func (g *Generator) elementID(sectionIndex, counter int) string {
	h := fnv.New64a()
	h.Write([]byte(g.audioHash))
	writeInt(h, sectionIndex)
	writeInt(h, counter)
	return hex64(h.Sum64())
}

func writeInt(h interface{ Write([]byte) (int, error) }, v int) {
	b := []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
	}
	h.Write(b)
}

func hex64(v uint64) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

func architectureMesh(a style.Architecture) string {
	switch a {
	case style.Cathedral:
		return "arch_cathedral"
	case style.Grid:
		return "arch_grid"
	case style.Club:
		return "arch_club"
	case style.Spires:
		return "arch_spire"
	case style.Void:
		return "arch_void"
	case style.Organic:
		return "arch_organic"
	case style.Crystalline:
		return "arch_crystal"
	default:
		return "arch_default"
	}
}

func beatShapeMesh(b style.BeatShape) string {
	switch b {
	case style.Sphere:
		return "beat_sphere"
	case style.Cube:
		return "beat_cube"
	case style.Prism:
		return "beat_prism"
	case style.Shard:
		return "beat_shard"
	case style.Wisp:
		return "beat_wisp"
	default:
		return "beat_sphere"
	}
}

func hslToRGBA(c style.HSL) RGBA {
	r, g, b := hslToRGB(c.H, c.S, c.L)
	return RGBA{R: r, G: g, B: b, A: 1}
}

// hslToRGB converts hue (degrees)/saturation/lightness to linear RGB.
func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360.0
	r = hueToRGB(p, q, hk+1.0/3.0)
	g = hueToRGB(p, q, hk)
	b = hueToRGB(p, q, hk-1.0/3.0)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
