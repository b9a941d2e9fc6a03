package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/fepipe/internal/deck"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMeshSize      = 1.0
	DefaultBlockSize     = 10.0
	DefaultRadius        = 0.5
	DefaultHeight        = 2.0
	DefaultMaterial      = "steel"
	DefaultOutputDir     = "out"
	DefaultSolverTimeout = 10 * time.Minute
)

type Config struct {
	Name        string                   `yaml:"name"`
	Source      string                   `yaml:"source"`
	Geometry    string                   `yaml:"geometry,omitempty"`
	Block       BlockConfig              `yaml:"block"`
	Cylinder    CylinderConfig           `yaml:"cylinder"`
	MeshSize    float64                  `yaml:"mesh_size"`
	Material    string                   `yaml:"material"`
	Materials   map[string]deck.Material `yaml:"materials,omitempty"`
	Load        LoadConfig               `yaml:"load"`
	Fixed       string                   `yaml:"fixed,omitempty"`
	OutputDir   string                   `yaml:"output_dir"`
	MeshOutputs []string                 `yaml:"mesh_outputs,omitempty"`
	Solve       bool                     `yaml:"solve"`
	Solver      SolverConfig             `yaml:"solver"`
	Mesher      MesherConfig             `yaml:"mesher"`
	LogLevel    string                   `yaml:"log_level"`
}

type BlockConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type CylinderConfig struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

type LoadConfig struct {
	MassKg  float64 `yaml:"mass_kg"`
	Gravity bool    `yaml:"gravity"`
	From    string  `yaml:"from"`
	To      string  `yaml:"to"`
}

// Mass returns the mass as the raw string the load validator expects.
func (l LoadConfig) Mass() string {
	return strconv.FormatFloat(l.MassKg, 'g', -1, 64)
}

type SolverConfig struct {
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`
	Threads int           `yaml:"threads"`
}

type MesherConfig struct {
	Binary string `yaml:"binary"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "model",
		Source:   "block",
		Block:    BlockConfig{X: DefaultBlockSize, Y: DefaultBlockSize, Z: DefaultBlockSize},
		Cylinder: CylinderConfig{Radius: DefaultRadius, Height: DefaultHeight},
		MeshSize: DefaultMeshSize,
		Material: DefaultMaterial,
		Load: LoadConfig{
			Gravity: true,
			From:    "z+",
			To:      "z-",
		},
		OutputDir: DefaultOutputDir,
		Solver: SolverConfig{
			Binary:  "ccx",
			Timeout: DefaultSolverTimeout,
		},
		Mesher:   MesherConfig{Binary: "gmsh"},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetMaterial resolves the configured material, preferring entries in
// Materials over the built-in library.
func (c *Config) GetMaterial() (deck.Material, error) {
	if m, ok := c.Materials[c.Material]; ok {
		if m.Name == "" {
			m.Name = c.Material
		}
		if err := m.Validate(); err != nil {
			return deck.Material{}, err
		}
		return m, nil
	}
	return deck.GetMaterial(c.Material)
}

func (c *Config) Validate() error {
	if c.MeshSize <= 0 {
		return fmt.Errorf("mesh_size must be positive, got %g", c.MeshSize)
	}
	if c.Solver.Timeout < 0 {
		return fmt.Errorf("solver timeout must not be negative, got %v", c.Solver.Timeout)
	}
	if c.Solver.Threads < 0 {
		return fmt.Errorf("solver threads must not be negative, got %d", c.Solver.Threads)
	}
	return nil
}
