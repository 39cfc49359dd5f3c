package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/adam-goose/fyp/pkg/simulation"
	"github.com/adam-goose/fyp/pkg/viewer"
)

const (
	screenWidth  = 1024
	screenHeight = 768
)

func main() {
	configFile := flag.String("config", "", "configuration file (.json, .yaml, .yml or .toml); defaults are used when empty")
	schemaFile := flag.String("schema", "", "JSON schema for the configuration; the embedded schema is used when empty")
	steps := flag.Uint("steps", 1, "ticks simulated per rendered frame")
	verbose := flag.Bool("v", false, "log the actor system to stdout")
	flag.Parse()

	ctx := context.Background()

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile, *schemaFile); err != nil {
			log.Fatalf("💥 error loading config: %v", err)
		}
	}

	var logger golog.Logger = golog.DiscardLogger
	if *verbose {
		logger = golog.New(golog.InfoLevel, os.Stdout)
	}
	swarm, err := simulation.Start(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("💥 error starting swarm: %v", err)
	}
	defer swarm.Stop(ctx)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Swarm 3D: Boids")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := viewer.NewGame(ctx, swarm, cfg, screenWidth, screenHeight)
	game.StepsPerFrame = uint32(*steps)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
