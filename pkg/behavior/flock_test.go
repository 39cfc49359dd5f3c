package behavior

import (
	"errors"
	"math"
	"testing"

	"github.com/adam-goose/fyp/pkg/geometry"
)

func newTestFlock(t testing.TB, s Settings, n int) *Flock {
	t.Helper()
	f := NewFlock(s, Boids{}, 42)
	if err := f.Reset(n); err != nil {
		t.Fatalf("Reset(%d): %v", n, err)
	}
	return f
}

func TestFlock_Reset(t *testing.T) {
	s := testSettings()
	f := newTestFlock(t, s, 50)

	if f.Len() != 50 {
		t.Fatalf("Len() = %d; want 50", f.Len())
	}
	if f.Epoch() != 1 || f.Tick() != 0 {
		t.Errorf("Epoch() = %d, Tick() = %d; want 1 and 0", f.Epoch(), f.Tick())
	}
	for i := 0; i < f.Len(); i++ {
		a, _ := f.Agent(i)
		if !s.World.Contains(a.Position) {
			t.Errorf("agent %d spawned outside the world at %v", i, a.Position)
		}
		if math.Abs(a.Direction.Len()-1) > tol {
			t.Errorf("agent %d direction %v is not unit", i, a.Direction)
		}
		if a.Speed < s.InitSpeedBounds[0] || a.Speed > s.InitSpeedBounds[1] {
			t.Errorf("agent %d speed %v outside init bounds", i, a.Speed)
		}
	}

	if err := f.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if err := f.Reset(10); err != nil {
		t.Fatalf("Reset(10): %v", err)
	}
	if f.Len() != 10 || f.Epoch() != 2 || f.Tick() != 0 {
		t.Errorf("after second reset Len=%d Epoch=%d Tick=%d; want 10, 2, 0", f.Len(), f.Epoch(), f.Tick())
	}
	if err := f.Reset(-1); err == nil {
		t.Errorf("Reset(-1) should fail")
	}
}

func TestFlock_ResetGrowsWithoutRestart(t *testing.T) {
	f := newTestFlock(t, testSettings(), 5)
	for _, n := range []int{5, 200, 20} {
		if err := f.Reset(n); err != nil {
			t.Fatalf("Reset(%d): %v", n, err)
		}
		for i := 0; i < 3; i++ {
			if err := f.Step(); err != nil {
				t.Fatalf("Step with %d agents: %v", n, err)
			}
		}
		if got := f.Snapshot().Len(); got != n {
			t.Errorf("snapshot has %d agents; want %d", got, n)
		}
	}
}

func TestFlock_Deterministic(t *testing.T) {
	a := newTestFlock(t, testSettings(), 30)
	b := newTestFlock(t, testSettings(), 30)
	for i := 0; i < 20; i++ {
		_ = a.Step()
		_ = b.Step()
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	for i := range sa.Positions {
		if sa.Positions[i] != sb.Positions[i] {
			t.Fatalf("runs diverged at component %d: %v vs %v", i, sa.Positions[i], sb.Positions[i])
		}
	}
}

func TestFlock_Invariants(t *testing.T) {
	s := testSettings()
	s.Obstacle.Enabled = true
	f := newTestFlock(t, s, 60)

	for tick := 0; tick < 300; tick++ {
		if err := f.Step(); err != nil {
			t.Fatalf("Step %d: %v", tick, err)
		}
		for i := 0; i < f.Len(); i++ {
			a, _ := f.Agent(i)
			if math.Abs(a.Direction.Len()-1) > 1e-9 {
				t.Fatalf("tick %d agent %d: |direction| = %v", tick, i, a.Direction.Len())
			}
			if a.Speed < a.MinSpeed || a.Speed > a.MaxSpeed {
				t.Fatalf("tick %d agent %d: speed %v outside [%v, %v]", tick, i, a.Speed, a.MinSpeed, a.MaxSpeed)
			}
		}
	}
}

// Every agent must be computed from the state before the tick, so the result of a
// tick equals advancing each agent independently against the same frozen flock.
func TestFlock_StepReadsPreTickState(t *testing.T) {
	s := testSettings()
	s.Obstacle.Enabled = false
	f := newTestFlock(t, s, 40)

	before := make([]Agent, f.Len())
	for i := range before {
		before[i], _ = f.Agent(i)
	}
	if err := f.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	field := NewNeighborField(len(before))
	for i := range before {
		field.Fill(before[i].Position, before)
		want := Boids{}.Advance(before[i], field, s, nil)
		got, _ := f.Agent(i)
		if got != want {
			t.Fatalf("agent %d = %+v; want %+v", i, got, want)
		}
	}
}

func TestFlock_ParallelMatchesSerial(t *testing.T) {
	s := testSettings()
	s.Obstacle.Enabled = false
	serial := newTestFlock(t, s, 101)

	s.Workers = 4
	parallel := newTestFlock(t, s, 101)

	for i := 0; i < 25; i++ {
		if err := serial.Step(); err != nil {
			t.Fatalf("serial Step: %v", err)
		}
		if err := parallel.Step(); err != nil {
			t.Fatalf("parallel Step: %v", err)
		}
	}
	for i := 0; i < serial.Len(); i++ {
		a, _ := serial.Agent(i)
		b, _ := parallel.Agent(i)
		if a != b {
			t.Fatalf("agent %d differs: serial %+v, parallel %+v", i, a, b)
		}
	}
}

func TestFlock_GridMatchesBruteForce(t *testing.T) {
	s := testSettings()
	s.Obstacle.Enabled = false
	brute := newTestFlock(t, s, 120)

	s.UseSpatialGrid = true
	gridded := newTestFlock(t, s, 120)

	for i := 0; i < 25; i++ {
		_ = brute.Step()
		_ = gridded.Step()
	}
	for i := 0; i < brute.Len(); i++ {
		a, _ := brute.Agent(i)
		b, _ := gridded.Agent(i)
		if !a.Position.EqTol(b.Position, 1e-12) || !a.Direction.EqTol(b.Direction, 1e-12) {
			t.Fatalf("agent %d differs: brute %+v, grid %+v", i, a, b)
		}
	}
}

func TestFlock_Override(t *testing.T) {
	s := testSettings()
	f := newTestFlock(t, s, 5)

	pos := []geometry.Vector3D{{X: 1, Y: 2, Z: 3}}
	dir := []geometry.Vector3D{{Y: 2}}
	if err := f.Override([]int{3}, pos, dir); err != nil {
		t.Fatalf("Override: %v", err)
	}
	snap := f.Snapshot()
	if !snap.Position(3).Eq(pos[0]) || !snap.Direction(3).Eq(geometry.Vector3D{Y: 1}) {
		t.Errorf("snapshot after override = %v / %v", snap.Position(3), snap.Direction(3))
	}

	other, _ := f.Agent(0)
	if err := f.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	got, _ := f.Agent(3)
	if !got.Position.Eq(pos[0]) {
		t.Errorf("overridden agent moved to %v during the override tick", got.Position)
	}
	if moved, _ := f.Agent(0); moved.Position.Eq(other.Position) {
		t.Errorf("agent 0 did not move")
	}

	if err := f.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got, _ := f.Agent(3); got.Position.Eq(pos[0]) {
		t.Errorf("overridden agent should resume moving on the following tick")
	}
}

func TestFlock_OverrideAll(t *testing.T) {
	f := newTestFlock(t, testSettings(), 3)
	pos := []geometry.Vector3D{{X: 1}, {X: 2}, {X: 3}}
	dir := []geometry.Vector3D{{X: 1}, {Y: 1}, {Z: 1}}
	if err := f.Override(nil, pos, dir); err != nil {
		t.Fatalf("Override: %v", err)
	}
	positions, directions := f.Snapshot().Vectors()
	for i := range pos {
		if !positions[i].Eq(pos[i]) || !directions[i].Eq(dir[i]) {
			t.Errorf("agent %d = %v / %v; want %v / %v", i, positions[i], directions[i], pos[i], dir[i])
		}
	}
}

func TestFlock_OverrideRejects(t *testing.T) {
	f := newTestFlock(t, testSettings(), 3)
	before := f.Snapshot()

	tests := []struct {
		name    string
		indices []int
		pos     []geometry.Vector3D
		dir     []geometry.Vector3D
		want    error
	}{
		{"Length mismatch", []int{0, 1}, []geometry.Vector3D{{X: 1}}, []geometry.Vector3D{{X: 1}, {X: 1}}, ErrOverrideMismatch},
		{"All agents wrong count", nil, []geometry.Vector3D{{X: 1}}, []geometry.Vector3D{{X: 1}}, ErrOverrideMismatch},
		{"Index out of range", []int{0, 3}, []geometry.Vector3D{{X: 1}, {X: 1}}, []geometry.Vector3D{{X: 1}, {X: 1}}, ErrIndexOutOfRange},
		{"Zero direction", []int{0, 1}, []geometry.Vector3D{{X: 1}, {X: 1}}, []geometry.Vector3D{{X: 1}, {}}, ErrZeroDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Override(tt.indices, tt.pos, tt.dir)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Override error = %v; want %v", err, tt.want)
			}
			after := f.Snapshot()
			for i := range before.Positions {
				if before.Positions[i] != after.Positions[i] {
					t.Fatalf("rejected override modified the flock")
				}
			}
		})
	}
}

func TestFlock_SnapshotIsACopy(t *testing.T) {
	f := newTestFlock(t, testSettings(), 4)
	snap := f.Snapshot()
	if len(snap.Positions) != 12 || len(snap.Directions) != 12 || len(snap.Speeds) != 4 {
		t.Fatalf("snapshot sizes = %d, %d, %d", len(snap.Positions), len(snap.Directions), len(snap.Speeds))
	}
	snap.Positions[0] = 1e6
	if a, _ := f.Agent(0); a.Position.X == 1e6 {
		t.Errorf("mutating a snapshot changed the flock")
	}
	if _, err := f.Agent(4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Agent(4) error = %v; want %v", err, ErrIndexOutOfRange)
	}
}

func TestFlock_SettingsChangeBetweenTicks(t *testing.T) {
	s := testSettings()
	f := newTestFlock(t, s, 20)
	_ = f.Step()

	s.DeltaTime = 0
	f.SetSettings(s)
	before := f.Snapshot()
	if err := f.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	after := f.Snapshot()
	for i := range before.Positions {
		if before.Positions[i] != after.Positions[i] {
			t.Fatalf("positions changed with a zero time step")
		}
	}
	if after.Tick != before.Tick+1 {
		t.Errorf("Tick = %d; want %d", after.Tick, before.Tick+1)
	}
}

func TestGrid_RebuildAndNearby(t *testing.T) {
	g := NewGrid(10)
	agents := []Agent{
		mustAgent(t, geometry.Vector3D{X: 5, Y: 5, Z: 5}, geometry.Vector3D{X: 1}),     // cell 0,0,0
		mustAgent(t, geometry.Vector3D{X: 15, Y: 5, Z: 5}, geometry.Vector3D{X: 1}),    // cell 1,0,0
		mustAgent(t, geometry.Vector3D{X: -5, Y: 5, Z: 5}, geometry.Vector3D{X: 1}),    // cell -1,0,0
		mustAgent(t, geometry.Vector3D{X: 35, Y: 35, Z: 35}, geometry.Vector3D{X: 1}),  // cell 3,3,3
		mustAgent(t, geometry.Vector3D{X: 5, Y: -15, Z: -5}, geometry.Vector3D{X: 1}),  // cell 0,-2,-1
		mustAgent(t, geometry.Vector3D{X: 25, Y: 5, Z: 5}, geometry.Vector3D{X: 1}),    // cell 2,0,0
		mustAgent(t, geometry.Vector3D{X: 5, Y: 5, Z: -9.9}, geometry.Vector3D{X: 1}),  // cell 0,0,-1
		mustAgent(t, geometry.Vector3D{X: 0, Y: 0, Z: 0}, geometry.Vector3D{X: 1}),     // cell 0,0,0
		mustAgent(t, geometry.Vector3D{X: -0.1, Y: 0, Z: 0}, geometry.Vector3D{X: 1}),  // cell -1,0,0
		mustAgent(t, geometry.Vector3D{X: -10.1, Y: 0, Z: 0}, geometry.Vector3D{X: 1}), // cell -2,0,0
	}
	g.Rebuild(agents)

	got := g.Nearby(geometry.Vector3D{X: 5, Y: 5, Z: 5}, nil)
	want := []int{0, 1, 2, 6, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("Nearby = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Nearby = %v; want %v", got, want)
		}
	}

	// a rebuild after agents move must not keep stale entries
	agents[1].Position = geometry.Vector3D{X: 95}
	g.Rebuild(agents)
	for _, i := range g.Nearby(geometry.Vector3D{X: 5, Y: 5, Z: 5}, nil) {
		if i == 1 {
			t.Errorf("agent 1 still reported near after moving away")
		}
	}
}

func TestGrid_MinimumCellSize(t *testing.T) {
	if got := NewGrid(0).CellSize(); got != minCellSize {
		t.Errorf("CellSize() = %v; want %v", got, minCellSize)
	}
}

func benchmarkStep(b *testing.B, n, workers int, grid bool) {
	s := testSettings()
	s.Workers = workers
	s.UseSpatialGrid = grid
	f := newTestFlock(b, s, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Step()
	}
}

func BenchmarkFlockStep_BruteForce(b *testing.B)   { benchmarkStep(b, 500, 1, false) }
func BenchmarkFlockStep_Grid(b *testing.B)         { benchmarkStep(b, 500, 1, true) }
func BenchmarkFlockStep_Parallel(b *testing.B)     { benchmarkStep(b, 500, 4, false) }
func BenchmarkFlockStep_GridParallel(b *testing.B) { benchmarkStep(b, 500, 4, true) }
