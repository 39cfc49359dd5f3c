package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/adam-goose/fyp/internal/recording"
	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/geometry"
	"github.com/adam-goose/fyp/pkg/simulation"
)

type options struct {
	configFile string
	schemaFile string
	ticks      int
	seed       uint64
	workers    int
	agents     int
	record     bool
	loops      int
	timeout    time.Duration
	logLevel   string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configFile, "config", "", "configuration file (.json, .yaml, .yml or .toml); defaults are used when empty")
	flag.StringVar(&o.schemaFile, "schema", "", "JSON schema for the configuration; the embedded schema is used when empty")
	flag.IntVar(&o.ticks, "ticks", 500, "number of ticks to simulate")
	flag.Uint64Var(&o.seed, "seed", 0, "random seed, overrides the configuration")
	flag.IntVar(&o.workers, "workers", 0, "goroutines per tick, overrides the configuration")
	flag.IntVar(&o.agents, "agents", 0, "number of agents, overrides the configuration")
	flag.BoolVar(&o.record, "record", false, "record every tick and replay the recording through the override path")
	flag.IntVar(&o.loops, "loops", 1, "how many times the recording is replayed")
	flag.DurationVar(&o.timeout, "timeout", 5*time.Second, "how long each request to the flock actor may take")
	flag.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.Parse()
	return o
}

func logLevel(name string) golog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return golog.DebugLevel
	case "warn", "warning":
		return golog.WarningLevel
	case "error":
		return golog.ErrorLevel
	default:
		return golog.InfoLevel
	}
}

func loadConfig(o options) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(o.configFile, o.schemaFile); err != nil {
			return nil, err
		}
	}
	// command line flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = o.seed
		case "workers":
			cfg.Workers = o.workers
		case "agents":
			cfg.NumAgents = o.agents
		}
	})
	return cfg, cfg.Validate()
}

func environment(cfg *simulation.Config) recording.Environment {
	s := cfg.Settings()
	return recording.Environment{World: s.World, Obstacle: s.Obstacle}
}

func main() {
	o := parseFlags()
	logger := golog.New(logLevel(o.logLevel), os.Stdout)

	cfg, err := loadConfig(o)
	if err != nil {
		log.Fatalf("💥 error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	swarm, err := simulation.Start(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("💥 error starting swarm: %v", err)
	}
	swarm.SetTimeout(o.timeout)
	defer func() {
		if err := swarm.Stop(context.Background()); err != nil {
			logger.Errorf("error stopping swarm: %v", err)
		}
	}()

	recorder := recording.NewRecorder(logger)
	if o.record {
		recorder.Start()
	}
	env := environment(cfg)

	start := time.Now()
	var last behavior.Snapshot
	for i := 0; i < o.ticks; i++ {
		if ctx.Err() != nil {
			logger.Warnf("interrupted after %d ticks", i)
			break
		}
		if err := swarm.Tick(ctx, 1); err != nil {
			logger.Errorf("tick failed: %v", err)
			return
		}
		if last, err = swarm.Snapshot(ctx); err != nil {
			logger.Errorf("snapshot failed: %v", err)
			return
		}
		recorder.RecordFrame(last, env)
	}
	elapsed := time.Since(start)
	logger.Infof("Simulated %d ticks of %d agents in %s (%.0f ticks/sec)",
		last.Tick, last.Len(), elapsed.Round(time.Millisecond), float64(last.Tick)/elapsed.Seconds())
	report(logger, last)

	if !recorder.IsRecording() {
		return
	}
	rec, err := recorder.Stop()
	if err != nil {
		logger.Errorf("recording failed: %v", err)
		return
	}
	if err := replay(ctx, swarm, rec, o.loops, logger); err != nil {
		logger.Errorf("playback failed: %v", err)
	}
}

// report logs the centroid and mean speed of the flock.
func report(logger golog.Logger, s behavior.Snapshot) {
	if s.Len() == 0 {
		return
	}
	positions, _ := s.Vectors()
	var sumSpeed float64
	centroid := geometry.Zero
	for i, p := range positions {
		centroid = centroid.Add(p)
		sumSpeed += s.Speeds[i]
	}
	n := float64(s.Len())
	logger.Infof("Centroid %s, mean speed %.3f", centroid.Mul(1/n), sumSpeed/n)
}

// replay feeds every recorded frame back to the flock and checks the flock reports it unchanged.
func replay(ctx context.Context, swarm *simulation.Swarm, rec *recording.Recording, loops int, logger golog.Logger) error {
	playback := recording.NewPlayback(logger)
	if err := playback.Load(rec); err != nil {
		return err
	}
	if err := playback.Start(); err != nil {
		return err
	}
	defer playback.Stop()

	current := -1
	mismatches := 0
	for i := 0; i < loops*rec.Len(); i++ {
		frame, ok := playback.Update()
		if !ok {
			break
		}
		if frame.NumAgents == 0 {
			continue
		}
		if frame.NumAgents != current || frame.Reset {
			if err := swarm.Reset(ctx, uint32(frame.NumAgents)); err != nil {
				return fmt.Errorf("reset to %d agents: %w", frame.NumAgents, err)
			}
			current = frame.NumAgents
		}
		if err := swarm.Override(ctx, nil, frame.Positions, frame.Directions); err != nil {
			return fmt.Errorf("override frame %d: %w", i, err)
		}
		got, err := swarm.Snapshot(ctx)
		if err != nil {
			return err
		}
		for j := 0; j < got.Len(); j++ {
			if !got.Position(j).Eq(frame.Positions[j]) {
				mismatches++
				break
			}
		}
	}
	logger.Infof("Replayed %d frames x %d, %d frames differ", rec.Len(), loops, mismatches)
	return nil
}
