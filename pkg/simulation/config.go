package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/geometry"
)

//go:embed config.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "config.schema.json"

// ErrInvalidConfig wraps every cross-field validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Population
	NumAgents     int    `json:"numAgents"`
	Seed          uint64 `json:"seed"`
	MovementModel string `json:"movementModel"`

	// Execution
	Workers        int  `json:"workers"`
	UseSpatialGrid bool `json:"useSpatialGrid"`

	// Flocking radii and weights
	PerceptionRadius float64 `json:"perceptionRadius"`
	CohesionRadius   float64 `json:"cohesionRadius"`
	CohesionWeight   float64 `json:"cohesionWeight"`
	AlignmentRadius  float64 `json:"alignmentRadius"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	SeparationRadius float64 `json:"separationRadius"`
	SeparationWeight float64 `json:"separationWeight"`

	// Walls
	WallRepulsionWeight float64    `json:"wallRepulsionWeight"` // also weighs the obstacle
	BoundaryThreshold   float64    `json:"boundaryThreshold"`
	BoundaryMaxForce    float64    `json:"boundaryMaxForce"`
	WorldMin            [3]float64 `json:"worldMin"`
	WorldMax            [3]float64 `json:"worldMax"`

	// Obstacle
	ObstacleEnabled   bool       `json:"obstacleEnabled"`
	ObstacleCornerMin [3]float64 `json:"obstacleCornerMin"`
	ObstacleCornerMax [3]float64 `json:"obstacleCornerMax"`

	// Motion
	DirectionAlpha  float64 `json:"directionAlpha"`
	MomentumWeight  float64 `json:"momentumWeight"`
	Acceleration    float64 `json:"acceleration"`
	Deceleration    float64 `json:"deceleration"`
	TurnSensitivity float64 `json:"turnSensitivity"` // degrees
	DeltaTime       float64 `json:"deltaTime"`
	MinSpeed        float64 `json:"minSpeed"`
	MaxSpeed        float64 `json:"maxSpeed"`

	// Spawn
	InitSpeedBounds     [2]float64 `json:"initSpeedBounds"`
	InitDirectionBounds [2]float64 `json:"initDirectionBounds"`
}

func DefaultConfig() *Config {
	return &Config{
		NumAgents:           50,
		Seed:                42,
		MovementModel:       behavior.BoidsModelName,
		Workers:             1,
		UseSpatialGrid:      false,
		PerceptionRadius:    3,
		CohesionRadius:      3,
		CohesionWeight:      1,
		AlignmentRadius:     2,
		AlignmentWeight:     1.5,
		SeparationRadius:    1,
		SeparationWeight:    2,
		WallRepulsionWeight: 1,
		BoundaryThreshold:   2,
		BoundaryMaxForce:    10,
		WorldMin:            [3]float64{-10, -10, -10},
		WorldMax:            [3]float64{10, 10, 10},
		ObstacleEnabled:     false,
		ObstacleCornerMin:   [3]float64{-1, -1, -1},
		ObstacleCornerMax:   [3]float64{1, 1, 1},
		DirectionAlpha:      0.5,
		MomentumWeight:      1,
		Acceleration:        0.5,
		Deceleration:        0.5,
		TurnSensitivity:     10,
		DeltaTime:           0.1,
		MinSpeed:            0.5,
		MaxSpeed:            5,
		InitSpeedBounds:     [2]float64{0.5, 2},
		InitDirectionBounds: [2]float64{-1, 1},
	}
}

// Validate checks the invariants the schema cannot express.
func (c *Config) Validate() error {
	if c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("%w: minSpeed %v is greater than maxSpeed %v", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed)
	}
	if c.InitSpeedBounds[0] > c.InitSpeedBounds[1] {
		return fmt.Errorf("%w: initSpeedBounds %v are not ordered", ErrInvalidConfig, c.InitSpeedBounds)
	}
	if c.InitDirectionBounds[0] > c.InitDirectionBounds[1] {
		return fmt.Errorf("%w: initDirectionBounds %v are not ordered", ErrInvalidConfig, c.InitDirectionBounds)
	}
	for axis := 0; axis < 3; axis++ {
		if c.WorldMin[axis] >= c.WorldMax[axis] {
			return fmt.Errorf("%w: worldMin %v must be below worldMax %v on every axis", ErrInvalidConfig, c.WorldMin, c.WorldMax)
		}
	}
	if c.MomentumWeight <= 0 {
		return fmt.Errorf("%w: momentumWeight must be positive, got %v", ErrInvalidConfig, c.MomentumWeight)
	}
	if c.NumAgents < 0 {
		return fmt.Errorf("%w: numAgents must not be negative", ErrInvalidConfig)
	}
	if _, err := behavior.ModelByName(c.MovementModel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// World returns the simulation bounds as a box.
func (c *Config) World() geometry.Box {
	return geometry.NewBox(geometry.FromSlice(c.WorldMin[:]), geometry.FromSlice(c.WorldMax[:]))
}

// ObstacleBox returns the obstacle corners as configured, without reordering them.
func (c *Config) ObstacleBox() geometry.Box {
	return geometry.Box{
		Min: geometry.FromSlice(c.ObstacleCornerMin[:]),
		Max: geometry.FromSlice(c.ObstacleCornerMax[:]),
	}
}

// Settings converts the configuration into the parameters read by the flock.
func (c *Config) Settings() behavior.Settings {
	return behavior.Settings{
		PerceptionRadius:    c.PerceptionRadius,
		CohesionRadius:      c.CohesionRadius,
		CohesionWeight:      c.CohesionWeight,
		AlignmentRadius:     c.AlignmentRadius,
		AlignmentWeight:     c.AlignmentWeight,
		SeparationRadius:    c.SeparationRadius,
		SeparationWeight:    c.SeparationWeight,
		WallRepulsionWeight: c.WallRepulsionWeight,
		BoundaryThreshold:   c.BoundaryThreshold,
		BoundaryMaxForce:    c.BoundaryMaxForce,
		World:               c.World(),
		Obstacle:            behavior.Obstacle{Enabled: c.ObstacleEnabled, Box: c.ObstacleBox()},
		DirectionAlpha:      c.DirectionAlpha,
		MomentumWeight:      c.MomentumWeight,
		Acceleration:        c.Acceleration,
		Deceleration:        c.Deceleration,
		TurnSensitivity:     c.TurnSensitivity,
		DeltaTime:           c.DeltaTime,
		MinSpeed:            c.MinSpeed,
		MaxSpeed:            c.MaxSpeed,
		InitSpeedBounds:     c.InitSpeedBounds,
		InitDirectionBounds: c.InitDirectionBounds,
		UseSpatialGrid:      c.UseSpatialGrid,
		Workers:             c.Workers,
	}
}

// Model resolves the configured movement model.
func (c *Config) Model() (behavior.MovementModel, error) {
	return behavior.ModelByName(c.MovementModel)
}

// JSON encodes the configuration the way LoadConfig and UpdateConfig read it.
func (c *Config) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// compileSchema compiles schemaFile, or the embedded schema when it is empty.
func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}
	return c.Compile(embeddedSchemaURL)
}

// toJSON normalizes a JSON, YAML or TOML document into JSON bytes.
func toJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case ".json", "":
		return data, nil
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
		return json.Marshal(doc)
	case ".toml":
		var doc map[string]interface{}
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
		return json.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// ParseConfig validates a JSON, YAML or TOML document and decodes it over DefaultConfig,
// so keys left out keep their default value. An empty schemaFile uses the embedded schema.
func ParseConfig(data []byte, format, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Normalize to JSON
	raw, err := toJSON(data, strings.ToLower(format))
	if err != nil {
		return nil, err
	}

	// 3. Validate
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON, YAML or TOML file, picked by extension,
// and validates it against the schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	cfg, err := ParseConfig(b, filepath.Ext(configFile), schemaFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configFile, err)
	}
	return cfg, nil
}
