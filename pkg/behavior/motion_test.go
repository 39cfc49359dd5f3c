package behavior

import (
	"errors"
	"math"
	"testing"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// testSettings mirrors the default configuration of the simulation.
func testSettings() Settings {
	return Settings{
		PerceptionRadius:    3,
		CohesionRadius:      3,
		CohesionWeight:      1,
		AlignmentRadius:     2,
		AlignmentWeight:     1.5,
		SeparationRadius:    1,
		SeparationWeight:    2,
		WallRepulsionWeight: 1,
		BoundaryThreshold:   2,
		BoundaryMaxForce:    10,
		World: geometry.NewBox(
			geometry.Vector3D{X: -10, Y: -10, Z: -10},
			geometry.Vector3D{X: 10, Y: 10, Z: 10},
		),
		Obstacle:            unitObstacle(),
		DirectionAlpha:      0.5,
		MomentumWeight:      1,
		Acceleration:        0.5,
		Deceleration:        0.5,
		TurnSensitivity:     10,
		DeltaTime:           0.1,
		MinSpeed:            0.5,
		MaxSpeed:            5,
		InitSpeedBounds:     [2]float64{0.5, 2},
		InitDirectionBounds: [2]float64{-1, 1},
		Workers:             1,
	}
}

func TestModelByName(t *testing.T) {
	m, err := ModelByName("boids")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name() != BoidsModelName {
		t.Errorf("Name() = %q; want %q", m.Name(), BoidsModelName)
	}
	if _, err := ModelByName("vicsek"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("unknown model error = %v; want %v", err, ErrUnknownModel)
	}
}

func TestBlendDirection(t *testing.T) {
	tests := []struct {
		name      string
		current   geometry.Vector3D
		composite geometry.Vector3D
		alpha     float64
		want      geometry.Vector3D
	}{
		{"Alpha zero keeps heading", geometry.Vector3D{X: 1}, geometry.Vector3D{Y: 1}, 0, geometry.Vector3D{X: 1}},
		{"Alpha one takes composite", geometry.Vector3D{X: 1}, geometry.Vector3D{Y: 1}, 1, geometry.Vector3D{Y: 1}},
		{"Half blend", geometry.Vector3D{X: 1}, geometry.Vector3D{Y: 1}, 0.5, geometry.Vector3D{X: 1, Y: 1}.Normalize()},
		{"Unnormalized current", geometry.Vector3D{X: 4}, geometry.Vector3D{X: 1}, 0.3, geometry.Vector3D{X: 1}},
		{"Cancelling blend keeps heading", geometry.Vector3D{X: 1}, geometry.Vector3D{X: -1}, 0.5, geometry.Vector3D{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlendDirection(tt.current, tt.composite, tt.alpha)
			if !got.EqTol(tt.want, tol) {
				t.Errorf("BlendDirection = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTargetSpeed(t *testing.T) {
	x := geometry.Vector3D{X: 1}
	small := geometry.Vector3D{X: math.Cos(0.1), Y: math.Sin(0.1)} // about 5.7 degrees
	wide := geometry.Vector3D{X: math.Cos(0.3), Y: math.Sin(0.3)}  // about 17.2 degrees

	if got := TargetSpeed(x, x, 5, 10); got != 5 {
		t.Errorf("straight = %v; want 5", got)
	}
	if got := TargetSpeed(small, x, 5, 10); got != 5 {
		t.Errorf("small turn = %v; want 5", got)
	}
	if got := TargetSpeed(wide, x, 5, 10); got != -5 {
		t.Errorf("wide turn = %v; want -5", got)
	}
	if got := TargetSpeed(wide, x, -5, 10); got != -5 {
		t.Errorf("wide turn with negative max = %v; want -5", got)
	}
}

func TestSmoothSpeed(t *testing.T) {
	t.Run("Accelerate", func(t *testing.T) {
		want := 2 + 3*(1-math.Exp(-0.5))
		if got := SmoothSpeed(2, 5, 0.5, 0.5, 1, 0.5, 5); math.Abs(got-want) > tol {
			t.Errorf("SmoothSpeed = %v; want %v", got, want)
		}
	})
	t.Run("Momentum scales the step", func(t *testing.T) {
		want := 2 + 2*3*(1-math.Exp(-0.1))
		if got := SmoothSpeed(2, 5, 0.1, 0.5, 2, 0.5, 5); math.Abs(got-want) > tol {
			t.Errorf("SmoothSpeed = %v; want %v", got, want)
		}
	})
	t.Run("Brake in a turn", func(t *testing.T) {
		want := 4 - 9*(1-math.Exp(-0.05))
		if got := SmoothSpeed(4, -5, 0.5, 0.05, 1, 0.5, 5); math.Abs(got-want) > tol {
			t.Errorf("SmoothSpeed = %v; want %v", got, want)
		}
	})
	t.Run("Clamp to min", func(t *testing.T) {
		if got := SmoothSpeed(2, -5, 0.5, 0.5, 1, 0.5, 5); got != 0.5 {
			t.Errorf("SmoothSpeed = %v; want 0.5", got)
		}
	})
	t.Run("Clamp to max", func(t *testing.T) {
		if got := SmoothSpeed(4.9, 5, 10, 0.5, 10, 0.5, 5); got != 5 {
			t.Errorf("SmoothSpeed = %v; want 5", got)
		}
	})
}

func TestBoids_AdvanceAlone(t *testing.T) {
	s := testSettings()
	s.Obstacle.Enabled = false
	a := mustAgent(t, geometry.Vector3D{X: 2, Y: 3, Z: 4}, geometry.Vector3D{Z: 1})
	a.Speed = 2
	f := fieldAround([]Agent{a}, 0)

	got := Boids{}.Advance(a, f, s, nil)

	wantSpeed := 2 + 3*(1-math.Exp(-0.5))
	if math.Abs(got.Speed-wantSpeed) > tol {
		t.Errorf("Speed = %v; want %v", got.Speed, wantSpeed)
	}
	if !got.Direction.EqTol(a.Direction, tol) {
		t.Errorf("Direction = %v; want unchanged %v", got.Direction, a.Direction)
	}
	wantPos := a.Position.Add(geometry.Vector3D{Z: wantSpeed * 0.1})
	if !got.Position.EqTol(wantPos, tol) {
		t.Errorf("Position = %v; want %v", got.Position, wantPos)
	}
}

func TestBoids_AdvanceTurnsAwayFromWall(t *testing.T) {
	s := testSettings()
	a := mustAgent(t, geometry.Vector3D{X: 9.5}, geometry.Vector3D{X: 1})
	a.Speed = 4
	got := Boids{}.Advance(a, fieldAround([]Agent{a}, 0), s, nil)

	// the wall heading is (-1, 0, 0) so the half blend cancels and the agent keeps its heading
	if !got.Direction.EqTol(geometry.Vector3D{X: 1}, tol) {
		t.Errorf("Direction = %v; want (1, 0, 0)", got.Direction)
	}

	a.Direction = geometry.Vector3D{X: 1, Y: 1}.Normalize()
	got = Boids{}.Advance(a, fieldAround([]Agent{a}, 0), s, nil)
	if got.Direction.X >= a.Direction.X {
		t.Errorf("Direction = %v; want less x than %v", got.Direction, a.Direction)
	}
	if got.Speed >= a.Speed {
		t.Errorf("Speed = %v; want braking below %v in a sharp turn", got.Speed, a.Speed)
	}
}
