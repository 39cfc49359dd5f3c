package behavior

import (
	"github.com/adam-goose/fyp/pkg/geometry"
)

const defaultFieldCapacity = 100

// NeighborField holds, for one agent, the positions, directions and speeds of the other
// agents together with their offset and distance to it.
// The same field is refilled for every agent of a tick so the pairwise distances are
// computed once and shared by the three flocking forces.
// The entry of the agent itself, and of any agent sharing its exact position,
// has a zero distance and is skipped by every consumer.
type NeighborField struct {
	Positions  []geometry.Vector3D
	Directions []geometry.Vector3D
	Speeds     []float64
	Deltas     []geometry.Vector3D // neighbor position minus own position
	Distances  []float64
}

// NewNeighborField allocates a field able to hold capacity agents without growing.
func NewNeighborField(capacity int) *NeighborField {
	if capacity <= 0 {
		capacity = defaultFieldCapacity
	}
	f := &NeighborField{}
	f.grow(capacity)
	return f
}

// Len is the number of entries filled by the last call to Fill or FillFrom.
func (f *NeighborField) Len() int {
	return len(f.Distances)
}

// Cap is the number of entries the field can hold before reallocating.
func (f *NeighborField) Cap() int {
	return cap(f.Distances)
}

func (f *NeighborField) grow(n int) {
	f.Positions = make([]geometry.Vector3D, 0, n)
	f.Directions = make([]geometry.Vector3D, 0, n)
	f.Speeds = make([]float64, 0, n)
	f.Deltas = make([]geometry.Vector3D, 0, n)
	f.Distances = make([]float64, 0, n)
}

// reset empties the field, reallocating when n entries would not fit.
func (f *NeighborField) reset(n int) {
	if n > f.Cap() {
		f.grow(n)
	}
	f.Positions = f.Positions[:0]
	f.Directions = f.Directions[:0]
	f.Speeds = f.Speeds[:0]
	f.Deltas = f.Deltas[:0]
	f.Distances = f.Distances[:0]
}

func (f *NeighborField) push(self geometry.Vector3D, a *Agent) {
	delta := a.Position.Sub(self)
	f.Positions = append(f.Positions, a.Position)
	f.Directions = append(f.Directions, a.Direction)
	f.Speeds = append(f.Speeds, a.Speed)
	f.Deltas = append(f.Deltas, delta)
	f.Distances = append(f.Distances, delta.Len())
}

// Fill computes the field around self over every agent of the flock.
func (f *NeighborField) Fill(self geometry.Vector3D, agents []Agent) {
	f.reset(len(agents))
	for i := range agents {
		f.push(self, &agents[i])
	}
}

// FillFrom computes the field around self over the agents named by indices only.
// It is used with spatial grid candidates; agents left out must lie beyond every radius.
func (f *NeighborField) FillFrom(self geometry.Vector3D, agents []Agent, indices []int) {
	f.reset(len(indices))
	for _, i := range indices {
		f.push(self, &agents[i])
	}
}
