package recording

import (
	golog "github.com/tochemey/goakt/v3/log"
)

// Playback replays a recording frame by frame, looping at the end.
type Playback struct {
	logger  golog.Logger
	rec     *Recording
	current int
	playing bool
}

// NewPlayback returns an empty player. A nil logger discards every log line.
func NewPlayback(logger golog.Logger) *Playback {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &Playback{logger: logger}
}

// Load replaces the loaded recording and rewinds. Playback stops.
func (p *Playback) Load(rec *Recording) error {
	if rec == nil || len(rec.Frames) == 0 {
		return ErrEmpty
	}
	p.rec = rec
	p.current = 0
	p.playing = false
	p.logger.Infof("Loaded recording %s: %d frames", rec.ID, len(rec.Frames))
	return nil
}

// Start plays the loaded recording from its first frame.
func (p *Playback) Start() error {
	if p.rec == nil {
		return ErrNotLoaded
	}
	p.current = 0
	p.playing = true
	return nil
}

func (p *Playback) Stop() {
	p.playing = false
}

func (p *Playback) IsPlaying() bool {
	return p.playing
}

// Position is the index of the frame the next Update returns.
func (p *Playback) Position() int {
	return p.current
}

// Update returns the current frame and advances, wrapping to the first frame after the last.
// ok is false when nothing is playing.
func (p *Playback) Update() (frame Frame, ok bool) {
	if !p.playing || p.rec == nil {
		return Frame{}, false
	}
	frame = p.rec.Frames[p.current]
	p.current = (p.current + 1) % len(p.rec.Frames)
	return frame, true
}
