package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"

	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/geometry"
)

const (
	systemName      = "SwarmWorld"
	flockActorName  = "flock"
	defaultTimeout  = 5 * time.Second
	snapshotBacklog = 10
)

// Swarm is the client handle of a running simulation: an actor system hosting one FlockActor.
// Every call is a request/response exchange with the actor, so calls are serialized
// with the ticks and never observe a half-updated flock.
type Swarm struct {
	System    actor.ActorSystem
	pid       *actor.PID
	snapshots chan behavior.Snapshot
	timeout   time.Duration
}

// Start boots an actor system and spawns the flock described by cfg.
// A nil logger discards every log line.
func Start(ctx context.Context, cfg *Config, logger golog.Logger) (*Swarm, error) {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	system, err := actor.NewActorSystem(systemName,
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	// Buffer to avoid blocking the actor when nobody drains the channel
	snapshots := make(chan behavior.Snapshot, snapshotBacklog)
	pid, err := system.Spawn(ctx, flockActorName, NewFlockActor(cfg, snapshots))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn flock: %w", err)
	}
	return &Swarm{
		System:    system,
		pid:       pid,
		snapshots: snapshots,
		timeout:   defaultTimeout,
	}, nil
}

// Snapshots delivers the state after every tick, reset and override.
// Frames are dropped while the channel is full.
func (s *Swarm) Snapshots() <-chan behavior.Snapshot {
	return s.snapshots
}

// SetTimeout changes how long each call waits for the actor.
func (s *Swarm) SetTimeout(d time.Duration) {
	s.timeout = d
}

func (s *Swarm) ask(ctx context.Context, msg proto.Message) (proto.Message, error) {
	resp, err := actor.Ask(ctx, s.pid, msg, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("ask %s: %w", msg.ProtoReflect().Descriptor().Name(), err)
	}
	return resp, nil
}

func (s *Swarm) command(ctx context.Context, msg proto.Message) error {
	resp, err := s.ask(ctx, msg)
	if err != nil {
		return err
	}
	return AckError(resp)
}

// Tick advances the flock by steps ticks.
func (s *Swarm) Tick(ctx context.Context, steps uint32) error {
	return s.command(ctx, NewTick(steps))
}

// Reset respawns the flock; numAgents 0 keeps the configured count.
func (s *Swarm) Reset(ctx context.Context, numAgents uint32) error {
	return s.command(ctx, NewReset(numAgents))
}

// UpdateConfig replaces the configuration used by the following ticks.
func (s *Swarm) UpdateConfig(ctx context.Context, cfg *Config) error {
	data, err := cfg.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return s.command(ctx, NewUpdateConfig(data))
}

// Override forces the position and direction of the agents named by indices for the next
// tick. A nil indices slice addresses every agent in order; an empty one is a no-op.
func (s *Swarm) Override(ctx context.Context, indices []int, positions, directions []geometry.Vector3D) error {
	var idx []uint32
	if indices != nil {
		idx = make([]uint32, len(indices))
		for i, v := range indices {
			if v < 0 {
				return fmt.Errorf("%w: %d", behavior.ErrIndexOutOfRange, v)
			}
			idx[i] = uint32(v)
		}
	}
	pos := make([]float64, 0, 3*len(positions))
	for _, p := range positions {
		pos = p.AppendTo(pos)
	}
	dir := make([]float64, 0, 3*len(directions))
	for _, d := range directions {
		dir = d.AppendTo(dir)
	}
	return s.command(ctx, NewOverride(idx, pos, dir))
}

// Snapshot returns the current state of the flock.
func (s *Swarm) Snapshot(ctx context.Context) (behavior.Snapshot, error) {
	resp, err := s.ask(ctx, NewGetSnapshot())
	if err != nil {
		return behavior.Snapshot{}, err
	}
	return SnapshotFromMessage(resp)
}

// Stop shuts the actor system down.
func (s *Swarm) Stop(ctx context.Context) error {
	return s.System.Stop(ctx)
}
