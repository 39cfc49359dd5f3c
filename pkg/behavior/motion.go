package behavior

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// MovementModel turns the neighborhood of an agent into its next state.
type MovementModel interface {
	Name() string
	// Advance returns the state of a after one tick. f must be filled around a.
	Advance(a Agent, f *NeighborField, s Settings, rng *rand.Rand) Agent
}

// BoidsModelName is the configuration name of the Boids model.
const BoidsModelName = "boids"

var models = map[string]MovementModel{
	BoidsModelName: Boids{},
}

// ModelByName resolves a configured movement model name.
func ModelByName(name string) (MovementModel, error) {
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownModel, name, ModelNames())
	}
	return m, nil
}

// ModelNames lists the registered movement models in lexical order.
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for n := range models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Boids blends the steering heading into the current direction with momentum,
// then accelerates on straight lines and brakes in turns.
type Boids struct{}

func (Boids) Name() string { return BoidsModelName }

// Advance runs the four stages in order: direction blend, turn classification,
// speed smoothing and position integration.
func (Boids) Advance(a Agent, f *NeighborField, s Settings, rng *rand.Rand) Agent {
	old := a.Direction
	composite := ComposeHeading(a, f, s, rng)

	a.Direction = BlendDirection(old, composite, s.BlendAlpha())
	target := TargetSpeed(a.Direction, old, a.MaxSpeed, s.TurnSensitivity)
	a.Speed = SmoothSpeed(a.Speed, target, s.Acceleration, s.Deceleration, s.MomentumWeight, a.MinSpeed, a.MaxSpeed)
	a.Position = a.Position.Add(a.Direction.Mul(a.Speed * s.DeltaTime))
	return a
}

// BlendDirection mixes current and composite as (1-alpha)*current + alpha*composite and
// normalizes the result. A blend that cancels out keeps the current direction.
func BlendDirection(current, composite geometry.Vector3D, alpha float64) geometry.Vector3D {
	cur := current.Normalize()
	blended := cur.Mul(1 - alpha).Add(composite.Mul(alpha)).Normalize()
	if blended.IsZero() {
		return cur
	}
	return blended
}

// TargetSpeed is maxSpeed when the turn from oldDir to newDir stays within
// turnSensitivity degrees, and -|maxSpeed| otherwise so the smoothing always brakes.
func TargetSpeed(newDir, oldDir geometry.Vector3D, maxSpeed, turnSensitivity float64) float64 {
	angle := math.Acos(geometry.Clamp(newDir.Dot(oldDir), -1, 1))
	if angle <= turnSensitivity*math.Pi/180 {
		return maxSpeed
	}
	return -math.Abs(maxSpeed)
}

// SmoothSpeed moves current toward target with an exponential lag scaled by momentum,
// then clamps to [minSpeed, maxSpeed].
func SmoothSpeed(current, target, acceleration, deceleration, momentum, minSpeed, maxSpeed float64) float64 {
	next := current
	if target < current {
		delta := (current - target) * (1 - math.Exp(-deceleration))
		next = current - delta*momentum
	} else {
		delta := (target - current) * (1 - math.Exp(-acceleration))
		next = current + delta*momentum
	}
	return geometry.Clamp(next, minSpeed, maxSpeed)
}
