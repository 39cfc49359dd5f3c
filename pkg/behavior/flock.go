package behavior

import (
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// maxDirectionDraws bounds the redraws of a zero spawn direction before falling back
// to a uniformly random unit vector.
const maxDirectionDraws = 16

// Flock owns the agents of one epoch and advances them tick by tick.
//
// A tick reads the agents from one buffer and writes the results into another, so every
// agent sees the state of the whole flock as it was before the tick started. This makes
// the per-agent updates independent and lets Step split them across workers.
// A Flock is not safe for concurrent use; the simulation actor serializes access to it.
type Flock struct {
	settings Settings
	model    MovementModel

	agents     []Agent // read buffer, the published state
	next       []Agent // write buffer
	overridden []bool

	rng     *rand.Rand
	workers []*worker
	grid    *Grid

	tick  uint64
	epoch uint64
}

// worker is the private scratch space of one goroutine of Step.
type worker struct {
	field      *NeighborField
	rng        *rand.Rand
	candidates []int
}

// NewFlock creates an empty flock; call Reset to spawn agents.
func NewFlock(s Settings, model MovementModel, seed uint64) *Flock {
	if model == nil {
		model = Boids{}
	}
	f := &Flock{
		model: model,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	f.SetSettings(s)
	return f
}

// Settings returns the settings used by the next tick.
func (f *Flock) Settings() Settings {
	return f.settings
}

// SetSettings replaces the settings read by the following ticks.
// Speed bounds of existing agents keep their spawn values until the next Reset.
func (f *Flock) SetSettings(s Settings) {
	f.settings = s
	if s.UseSpatialGrid {
		if f.grid == nil {
			f.grid = NewGrid(s.InteractionRadius())
		} else {
			f.grid.SetCellSize(s.InteractionRadius())
		}
	} else {
		f.grid = nil
	}
}

// Model returns the movement model applied on every tick.
func (f *Flock) Model() MovementModel {
	return f.model
}

// SetModel swaps the movement model for the following ticks.
func (f *Flock) SetModel(m MovementModel) {
	if m != nil {
		f.model = m
	}
}

// Len is the number of agents of the current epoch.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Tick is the number of steps taken since the last Reset.
func (f *Flock) Tick() uint64 {
	return f.tick
}

// Epoch counts the resets performed so far.
func (f *Flock) Epoch() uint64 {
	return f.epoch
}

// Agent returns a copy of agent i.
func (f *Flock) Agent(i int) (Agent, error) {
	if i < 0 || i >= len(f.agents) {
		return Agent{}, fmt.Errorf("%w: %d (flock has %d agents)", ErrIndexOutOfRange, i, len(f.agents))
	}
	return f.agents[i], nil
}

// Reset discards every agent and spawns numAgents new ones from the current settings:
// positions uniform in the world box, direction components uniform in InitDirectionBounds
// and speeds uniform in InitSpeedBounds clamped to the speed bounds.
func (f *Flock) Reset(numAgents int) error {
	if numAgents < 0 {
		return fmt.Errorf("cannot spawn %d agents", numAgents)
	}
	s := f.settings
	agents := make([]Agent, 0, numAgents)
	for i := 0; i < numAgents; i++ {
		pos := s.World.Normalized().RandomPoint(f.rng)
		dir := f.spawnDirection()
		speed := geometry.Uniform(f.rng, s.InitSpeedBounds[0], s.InitSpeedBounds[1])
		a, err := NewAgent(pos, dir, speed, s.MinSpeed, s.MaxSpeed)
		if err != nil {
			return fmt.Errorf("spawning agent %d: %w", i, err)
		}
		agents = append(agents, a)
	}

	f.agents = agents
	f.next = make([]Agent, numAgents)
	f.overridden = make([]bool, numAgents)
	// worker generators are derived again from f.rng on the first tick of the epoch
	f.workers = f.workers[:0]
	f.tick = 0
	f.epoch++
	return nil
}

func (f *Flock) spawnDirection() geometry.Vector3D {
	lo, hi := f.settings.InitDirectionBounds[0], f.settings.InitDirectionBounds[1]
	for i := 0; i < maxDirectionDraws; i++ {
		d := geometry.RandomInCube(f.rng, lo, hi)
		if d.Len() >= geometry.Epsilon {
			return d
		}
	}
	return geometry.RandomUnit(f.rng)
}

func (f *Flock) workerCount() int {
	n := f.settings.Workers
	if n < 1 {
		n = 1
	}
	if n > len(f.agents) {
		n = len(f.agents)
	}
	return n
}

func (f *Flock) ensureWorkers(n int) {
	for len(f.workers) < n {
		f.workers = append(f.workers, &worker{
			field: NewNeighborField(len(f.agents)),
			rng:   rand.New(rand.NewPCG(f.rng.Uint64(), f.rng.Uint64())),
		})
	}
}

// Step advances every agent by one tick.
// Agents overridden since the previous tick keep their overridden state for this tick.
// On error the published state is left untouched.
func (f *Flock) Step() error {
	n := len(f.agents)
	if n == 0 {
		f.tick++
		return nil
	}
	if f.grid != nil {
		f.grid.Rebuild(f.agents)
	}

	workers := f.workerCount()
	f.ensureWorkers(workers)
	if workers == 1 {
		if err := f.advanceRange(f.workers[0], 0, n); err != nil {
			return err
		}
	} else {
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			lo, hi := w*chunk, min((w+1)*chunk, n)
			if lo >= hi {
				break
			}
			wk := f.workers[w]
			g.Go(func() error {
				return f.advanceRange(wk, lo, hi)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	f.agents, f.next = f.next, f.agents
	clear(f.overridden)
	f.tick++
	return nil
}

// advanceRange updates agents [lo, hi) into the write buffer.
func (f *Flock) advanceRange(w *worker, lo, hi int) error {
	for i := lo; i < hi; i++ {
		a := f.agents[i]
		if f.overridden[i] {
			f.next[i] = a
			continue
		}
		if f.grid != nil {
			w.candidates = f.grid.Nearby(a.Position, w.candidates[:0])
			w.field.FillFrom(a.Position, f.agents, w.candidates)
		} else {
			w.field.Fill(a.Position, f.agents)
		}
		out := f.model.Advance(a, w.field, f.settings, w.rng)
		if !out.Position.IsFinite() || !out.Direction.IsFinite() {
			return fmt.Errorf("agent %d at tick %d: %w", i, f.tick, ErrNonFiniteState)
		}
		f.next[i] = out
	}
	return nil
}

// Override replaces the position and direction of the agents named by indices and
// excludes them from the computation of the next tick. A nil indices slice addresses
// every agent in order. Nothing is applied if any entry is invalid.
func (f *Flock) Override(indices []int, positions, directions []geometry.Vector3D) error {
	if indices == nil {
		if len(positions) != len(f.agents) {
			return fmt.Errorf("%w: %d positions for %d agents", ErrOverrideMismatch, len(positions), len(f.agents))
		}
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}
	if len(positions) != len(indices) || len(directions) != len(indices) {
		return fmt.Errorf("%w: %d indices, %d positions, %d directions",
			ErrOverrideMismatch, len(indices), len(positions), len(directions))
	}
	for k, i := range indices {
		if i < 0 || i >= len(f.agents) {
			return fmt.Errorf("%w: %d (flock has %d agents)", ErrIndexOutOfRange, i, len(f.agents))
		}
		if directions[k].Len() < geometry.Epsilon {
			return fmt.Errorf("override of agent %d: %w", i, ErrZeroDirection)
		}
	}
	for k, i := range indices {
		f.agents[i].Position = positions[k]
		f.agents[i].Direction = directions[k].Normalize()
		f.overridden[i] = true
	}
	return nil
}

// Snapshot copies the published state into flat arrays, three values per agent for
// positions and directions, addressed by the agent index of the epoch.
func (f *Flock) Snapshot() Snapshot {
	s := Snapshot{
		Tick:       f.tick,
		Epoch:      f.epoch,
		Positions:  make([]float64, 0, 3*len(f.agents)),
		Directions: make([]float64, 0, 3*len(f.agents)),
		Speeds:     make([]float64, 0, len(f.agents)),
	}
	for i := range f.agents {
		s.Positions = f.agents[i].Position.AppendTo(s.Positions)
		s.Directions = f.agents[i].Direction.AppendTo(s.Directions)
		s.Speeds = append(s.Speeds, f.agents[i].Speed)
	}
	return s
}

// Snapshot is a copy of the flock state at one tick.
type Snapshot struct {
	Tick       uint64
	Epoch      uint64
	Positions  []float64
	Directions []float64
	Speeds     []float64
}

// Len is the number of agents in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Speeds)
}

// Position returns the position of agent i.
func (s Snapshot) Position(i int) geometry.Vector3D {
	return geometry.FromSlice(s.Positions[3*i:])
}

// Direction returns the direction of agent i.
func (s Snapshot) Direction(i int) geometry.Vector3D {
	return geometry.FromSlice(s.Directions[3*i:])
}

// Vectors unpacks positions and directions into vectors.
func (s Snapshot) Vectors() (positions, directions []geometry.Vector3D) {
	positions = make([]geometry.Vector3D, s.Len())
	directions = make([]geometry.Vector3D, s.Len())
	for i := range positions {
		positions[i] = s.Position(i)
		directions[i] = s.Direction(i)
	}
	return positions, directions
}
