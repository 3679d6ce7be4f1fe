// Package scene implements the scene assembler: the per-frame pull-based
// state machine that composes the analyzer/clarity/world/transition outputs
// into a renderer-facing SceneFrame, plus the ShaderUniforms binary ABI.
package scene

import (
	"encoding/binary"
	"math"
)

// UniformsSize is the ShaderUniforms ABI's fixed byte size, matching a
// GPU uniform buffer's expected layout.
const UniformsSize = 128

// Uniforms holds the ShaderUniforms fields in ABI order. The struct itself
// carries no padding fields; Pack produces the padded 128-byte layout that
// can be copied straight into a GPU uniform buffer.
type Uniforms struct {
	Time            float32
	DeltaTime       float32
	ResolutionX     float32
	ResolutionY     float32
	Clarity         float32
	Energy          float32
	Bass            float32
	Mid             float32
	High            float32
	Beat            float32
	Tempo           float32
	Valence         float32
	Arousal         float32
	Hue             float32
	Saturation      float32
	Lightness       float32
	SectionType     uint32
	SectionProgress float32
	IsClimax        uint32
	BloomIntensity  float32
	ChromaticAmount float32
	VignetteStrength float32
	GrainAmount     float32
}

// Pack encodes u into the exact 128-byte little-endian layout matching the
// GPU uniform buffer's field order, including the reserved padding regions.
func (u Uniforms) Pack() [UniformsSize]byte {
	var buf [UniformsSize]byte
	putF32(buf[0:], u.Time)
	putF32(buf[4:], u.DeltaTime)
	putF32(buf[8:], u.ResolutionX)
	putF32(buf[12:], u.ResolutionY)
	putF32(buf[16:], u.Clarity)
	putF32(buf[20:], u.Energy)
	putF32(buf[24:], u.Bass)
	putF32(buf[28:], u.Mid)
	putF32(buf[32:], u.High)
	putF32(buf[36:], u.Beat)
	putF32(buf[40:], u.Tempo)
	// offset 44: _pad
	putF32(buf[48:], u.Valence)
	putF32(buf[52:], u.Arousal)
	putF32(buf[56:], u.Hue)
	putF32(buf[60:], u.Saturation)
	putF32(buf[64:], u.Lightness)
	// offset 68..80: _pad[3]
	binary.LittleEndian.PutUint32(buf[80:], u.SectionType)
	putF32(buf[84:], u.SectionProgress)
	binary.LittleEndian.PutUint32(buf[88:], u.IsClimax)
	// offset 92: _pad
	putF32(buf[96:], u.BloomIntensity)
	putF32(buf[100:], u.ChromaticAmount)
	putF32(buf[104:], u.VignetteStrength)
	putF32(buf[108:], u.GrainAmount)
	return buf
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
