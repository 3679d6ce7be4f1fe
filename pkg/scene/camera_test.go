package scene

import (
	"math"
	"testing"
)

// TestOrbitScenario checks an orbit camera at timeline_position=5,
// orbit_radius=15, orbit_height=8: after one second at
// auto_rotate_speed=0.2 rad/s, its position has a distance from (5,0,0) in
// the XZ plane within 1e-3 of 15 and a height within 1e-3 of 8. Smoothing is
// set to 1 (no lag) to isolate the pure orbit formula from the separate
// exponential-smoothing step the camera rig layers on top of it.
func TestOrbitScenario(t *testing.T) {
	params := CameraParams{
		TimelinePosition: 5,
		OrbitRadius:      15,
		OrbitHeight:      8,
		AutoRotateSpeed:  0.2,
		Smoothing:        1.0,
	}
	cam := NewCamera(Orbit, params)

	const dt = 1.0 / 120.0
	var pose Pose
	for elapsed := 0.0; elapsed < 1.0; elapsed += dt {
		pose = cam.Advance(elapsed, dt)
	}

	dx := pose.Position.X - 5
	dz := pose.Position.Z - 0
	dist := math.Sqrt(dx*dx + dz*dz)
	if math.Abs(dist-15) > 1e-3 {
		t.Fatalf("XZ distance from (5,0,0) = %f, want 15±1e-3", dist)
	}
	if math.Abs(pose.Position.Y-8) > 1e-3 {
		t.Fatalf("height = %f, want 8±1e-3", pose.Position.Y)
	}
}

// TestOrbitAngleWraps verifies theta wraps modulo 2π rather than growing
// unbounded.
func TestOrbitAngleWraps(t *testing.T) {
	cam := NewCamera(Orbit, CameraParams{OrbitRadius: 10, OrbitHeight: 5, AutoRotateSpeed: 100, Smoothing: 1.0})
	for i := 0; i < 1000; i++ {
		cam.Advance(float64(i), 1.0)
	}
	if cam.theta < 0 || cam.theta >= 2*math.Pi {
		t.Fatalf("theta = %f, want in [0, 2pi)", cam.theta)
	}
}

// TestSmoothingEasesTowardTarget verifies smoothing < 1 causes the camera
// to lag behind an instantaneous target change rather than snapping.
func TestSmoothingEasesTowardTarget(t *testing.T) {
	cam := NewCamera(Tracking, CameraParams{TimelinePosition: 0, Smoothing: 0.2})
	cam.Advance(0, 0.016) // establishes initial pose at target (first frame is unsmoothed)
	cam.Params.TimelinePosition = 100
	pose := cam.Advance(0.016, 0.016)
	if pose.Target.X <= 0 || pose.Target.X >= 100 {
		t.Fatalf("Target.X = %f, want strictly between 0 and 100 (eased, not snapped)", pose.Target.X)
	}
}
