// Package recording captures flock snapshots with their environment and plays them back.
package recording

import (
	"errors"
	"time"

	"github.com/google/uuid"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/geometry"
)

var (
	ErrNotRecording = errors.New("recorder is not recording")
	ErrEmpty        = errors.New("recording has no frames")
	ErrNotLoaded    = errors.New("no recording loaded")
)

// Environment is the part of the configuration a viewer needs to redraw a frame.
type Environment struct {
	World    geometry.Box
	Obstacle behavior.Obstacle
}

// Frame is one recorded tick.
type Frame struct {
	Tick       uint64
	Epoch      uint64
	NumAgents  int
	Positions  []geometry.Vector3D
	Directions []geometry.Vector3D
	Env        Environment
	// Reset is set on the first frame following a respawn of the flock.
	Reset bool
}

// Recording is a finished, immutable sequence of frames.
type Recording struct {
	ID      uuid.UUID
	Started time.Time
	Stopped time.Time
	Frames  []Frame
}

// Len returns the number of frames.
func (r *Recording) Len() int {
	return len(r.Frames)
}

// Recorder accumulates frames between Start and Stop.
type Recorder struct {
	logger    golog.Logger
	recording bool
	current   *Recording
	// resetPending marks the next recorded frame as a reset frame
	resetPending bool
	lastEpoch    uint64
}

// NewRecorder returns an idle recorder. A nil logger discards every log line.
func NewRecorder(logger golog.Logger) *Recorder {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &Recorder{logger: logger}
}

// Start begins a new recording, dropping any frames not yet collected by Stop.
func (r *Recorder) Start() uuid.UUID {
	r.current = &Recording{
		ID:      uuid.New(),
		Started: time.Now(),
	}
	r.recording = true
	r.resetPending = false
	r.logger.Infof("Recording %s started", r.current.ID)
	return r.current.ID
}

// IsRecording reports whether frames are being collected.
func (r *Recorder) IsRecording() bool {
	return r.recording
}

// MarkReset flags the next recorded frame as the first of a new epoch.
func (r *Recorder) MarkReset() {
	r.resetPending = true
}

// RecordFrame stores a copy of snap. It is a no-op while the recorder is idle.
// A change of epoch since the previous frame is flagged as a reset as well.
func (r *Recorder) RecordFrame(snap behavior.Snapshot, env Environment) {
	if !r.recording {
		return
	}
	positions, directions := snap.Vectors()
	reset := r.resetPending
	if n := len(r.current.Frames); n > 0 && snap.Epoch != r.lastEpoch {
		reset = true
	}
	env.World = env.World.Normalized()
	env.Obstacle.Box = env.Obstacle.Box.Normalized()
	r.current.Frames = append(r.current.Frames, Frame{
		Tick:       snap.Tick,
		Epoch:      snap.Epoch,
		NumAgents:  snap.Len(),
		Positions:  positions,
		Directions: directions,
		Env:        env,
		Reset:      reset,
	})
	r.resetPending = false
	r.lastEpoch = snap.Epoch
}

// Stop ends the recording and hands it over.
func (r *Recorder) Stop() (*Recording, error) {
	if !r.recording {
		return nil, ErrNotRecording
	}
	r.recording = false
	rec := r.current
	r.current = nil
	if len(rec.Frames) == 0 {
		r.logger.Warnf("Recording %s stopped without frames", rec.ID)
		return nil, ErrEmpty
	}
	rec.Stopped = time.Now()
	r.logger.Infof("Recording %s stopped: %d frames", rec.ID, len(rec.Frames))
	return rec, nil
}
