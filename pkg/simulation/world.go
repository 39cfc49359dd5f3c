package simulation

import (
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/geometry"
)

// FlockActor is the "Brain". It owns the authoritative flock and serializes every
// tick, reset, configuration change and playback override through its mailbox.
type FlockActor struct {
	cfg   *Config
	flock *behavior.Flock

	// Communication with the renderer / recorder
	snapshotCh chan<- behavior.Snapshot

	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

// Enforce interface compliance
var _ actor.Actor = (*FlockActor)(nil)

// NewFlockActor creates the flock logic unit. snapshotCh may be nil.
func NewFlockActor(cfg *Config, snapshotCh chan<- behavior.Snapshot) *FlockActor {
	return &FlockActor{
		cfg:         cfg,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *FlockActor) PreStart(ctx *actor.Context) error {
	if err := w.spawn(); err != nil {
		return err
	}
	ctx.ActorSystem().Logger().Infof("Flock spawned %d agents (model %s, workers %d, grid %t)",
		w.flock.Len(), w.flock.Model().Name(), w.cfg.Workers, w.cfg.UseSpatialGrid)
	return nil
}

// spawn builds the flock from the current config.
func (w *FlockActor) spawn() error {
	model, err := w.cfg.Model()
	if err != nil {
		return err
	}
	w.flock = behavior.NewFlock(w.cfg.Settings(), model, w.cfg.Seed)
	if err := w.flock.Reset(w.cfg.NumAgents); err != nil {
		return fmt.Errorf("initial spawn: %w", err)
	}
	return nil
}

func (w *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("Flock started, epoch %d", w.flock.Epoch())

	case *dynamicpb.Message:
		w.handle(ctx, msg)

	default:
		ctx.Unhandled()
	}
}

func (w *FlockActor) handle(ctx *actor.ReceiveContext, msg *dynamicpb.Message) {
	switch msg.Descriptor().FullName() {
	// The Main Simulation Step
	case TickMessage:
		steps := getUint(msg, "steps")
		if steps == 0 {
			steps = 1
		}
		err := w.advance(steps)
		if err != nil {
			ctx.Logger().Errorf("tick %d failed: %v", w.flock.Tick(), err)
		}
		w.logBenchmarks(ctx)
		w.pushSnapshot()
		ctx.Response(NewAck(err))

	case ResetMessage:
		n := int(getUint(msg, "num_agents"))
		if n == 0 {
			n = w.cfg.NumAgents
		}
		err := w.flock.Reset(n)
		if err == nil {
			ctx.Logger().Infof("Flock reset: %d agents, epoch %d", n, w.flock.Epoch())
			w.pushSnapshot()
		}
		ctx.Response(NewAck(err))

	// Configuration changes apply from the next tick on
	case UpdateConfigMessage:
		data := msg.Get(updateConfigDesc.Fields().ByName("config_json")).Bytes()
		ctx.Response(NewAck(w.updateConfig(ctx, data)))

	case OverrideMessage:
		ctx.Response(NewAck(w.override(msg)))

	case GetSnapshotMessage:
		ctx.Response(NewSnapshot(w.flock.Snapshot()))

	default:
		ctx.Unhandled()
	}
}

func (w *FlockActor) updateConfig(ctx *actor.ReceiveContext, data []byte) error {
	cfg, err := ParseConfig(data, ".json", "")
	if err != nil {
		ctx.Logger().Warnf("rejected config update: %v", err)
		return err
	}
	model, err := cfg.Model()
	if err != nil {
		return err
	}
	w.cfg = cfg
	w.flock.SetSettings(cfg.Settings())
	w.flock.SetModel(model)
	ctx.Logger().Debugf("config updated (model %s), %d agents on next reset", w.flock.Model().Name(), cfg.NumAgents)
	return nil
}

func (w *FlockActor) override(msg *dynamicpb.Message) error {
	indices, pos, dir := overrideArgs(msg)
	if len(pos)%3 != 0 || len(dir)%3 != 0 {
		return fmt.Errorf("%w: positions and directions need three values per agent", behavior.ErrOverrideMismatch)
	}
	positions := make([]geometry.Vector3D, len(pos)/3)
	directions := make([]geometry.Vector3D, len(dir)/3)
	for i := range positions {
		positions[i] = geometry.FromSlice(pos[3*i:])
	}
	for i := range directions {
		directions[i] = geometry.FromSlice(dir[3*i:])
	}
	if err := w.flock.Override(indices, positions, directions); err != nil {
		return err
	}
	w.pushSnapshot()
	return nil
}

// advance steps the flock up to steps times, stopping at the first failure.
// Only completed ticks count toward the tick rate.
func (w *FlockActor) advance(steps uint64) error {
	for i := uint64(0); i < steps; i++ {
		if err := w.flock.Step(); err != nil {
			return err
		}
		w.tickCount++
	}
	return nil
}

func (w *FlockActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if elapsed := time.Since(w.lastLogTime); elapsed >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %.0f/sec | Agents: %d | Epoch: %d | Tick: %d",
			float64(w.tickCount)/elapsed.Seconds(), w.flock.Len(), w.flock.Epoch(), w.flock.Tick())
		w.tickCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *FlockActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.flock.Snapshot():
	default:
		// consumer busy, skip frame
	}
}

func (w *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("Flock is shutdown...")
	return nil
}
