package scene

import (
	"math"

	"github.com/opd-ai/synesthesia/pkg/world"
)

// FollowMode selects the camera's targeting behavior.
type FollowMode int

const (
	Orbit FollowMode = iota
	Tracking
	Cinematic
	FirstPerson
)

// CameraParams configures a mode's pure (t, params) → (position, target)
// function.
type CameraParams struct {
	TimelinePosition float64 // x along the timeline axis, orbit/tracking target center
	OrbitRadius      float64
	OrbitHeight      float64
	AutoRotateSpeed  float64 // rad/s
	TrackingOffset   world.Vec3
	CinematicHeight  float64
	CinematicSpeed   float64 // units/s along the timeline axis
	FirstPersonEye   world.Vec3

	Smoothing float64 // lerp factor applied to current→target each frame, in (0,1]
}

// DefaultSmoothing matches the teacher camera rig's default follow feel.
const DefaultSmoothing = 0.15

// Camera holds the smoothed position/target state and the orbit's
// accumulated angle, since orbit advances θ += ω·dt across calls rather
// than being a pure function of t alone.
type Camera struct {
	Mode   FollowMode
	Params CameraParams

	position world.Vec3
	target   world.Vec3
	theta    float64
	initted  bool
}

// NewCamera creates a Camera in the given mode.
func NewCamera(mode FollowMode, params CameraParams) *Camera {
	if params.Smoothing <= 0 {
		params.Smoothing = DefaultSmoothing
	}
	return &Camera{Mode: mode, Params: params}
}

// Pose is the position/target/up/fov/near/far the renderer needs per frame.
type Pose struct {
	Position world.Vec3
	Target   world.Vec3
	Up       world.Vec3
	FOV      float64
	Near     float64
	Far      float64
}

// Advance steps the camera by dt at timeline time t, returning the smoothed
// Pose for this frame.
func (c *Camera) Advance(t, dt float64) Pose {
	var targetPos, targetLook world.Vec3

	switch c.Mode {
	case Orbit:
		c.theta = math.Mod(c.theta+c.Params.AutoRotateSpeed*dt, 2*math.Pi)
		center := world.Vec3{X: c.Params.TimelinePosition, Y: 0, Z: 0}
		targetPos = world.Vec3{
			X: center.X + c.Params.OrbitRadius*math.Cos(c.theta),
			Y: c.Params.OrbitHeight,
			Z: center.Z + c.Params.OrbitRadius*math.Sin(c.theta),
		}
		targetLook = center
	case Tracking:
		center := world.Vec3{X: c.Params.TimelinePosition, Y: 0, Z: 0}
		targetPos = center.Add(c.Params.TrackingOffset)
		targetLook = center
	case Cinematic:
		x := c.Params.TimelinePosition + c.Params.CinematicSpeed*t
		targetPos = world.Vec3{X: x - 10, Y: c.Params.CinematicHeight, Z: 12}
		targetLook = world.Vec3{X: x, Y: 0, Z: 0}
	case FirstPerson:
		targetPos = c.Params.FirstPersonEye.Add(world.Vec3{X: c.Params.TimelinePosition})
		targetLook = world.Vec3{X: c.Params.TimelinePosition + 1, Y: targetPos.Y, Z: targetPos.Z}
	}

	if !c.initted {
		c.position = targetPos
		c.target = targetLook
		c.initted = true
	} else {
		c.position = lerpVec3(c.position, targetPos, c.Params.Smoothing)
		c.target = lerpVec3(c.target, targetLook, c.Params.Smoothing)
	}

	return Pose{
		Position: c.position,
		Target:   c.target,
		Up:       world.Vec3{Y: 1},
		FOV:      60,
		Near:     0.1,
		Far:      500,
	}
}

func lerpVec3(a, b world.Vec3, t float64) world.Vec3 {
	return world.Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}
