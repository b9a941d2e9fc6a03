package config

import "sort"

var Presets = map[string]*Config{
	"block": {
		Name: "example", Source: "block", MeshSize: 1.0, Material: "steel",
		Block: BlockConfig{X: 10, Y: 10, Z: 10},
		Load:  LoadConfig{MassKg: 50, Gravity: true, From: "z+", To: "z-"},
	},
	"cylinder": {
		Name: "cylinder_with_load", Source: "cylinder", MeshSize: 0.1, Material: "carbon_fiber",
		Cylinder: CylinderConfig{Radius: 0.5, Height: 2.0},
		Load:     LoadConfig{MassKg: 500, Gravity: true, From: "z+", To: "z-"},
	},
	"shear": {
		Name: "shear_block", Source: "block", MeshSize: 0.5, Material: "aluminium",
		Block: BlockConfig{X: 2, Y: 2, Z: 6},
		Load:  LoadConfig{MassKg: 100, Gravity: true, From: "z+", To: "x+"},
	},
	"step": {
		Name: "step_part", Source: "step", MeshSize: 1.0, Material: "steel",
		Load:        LoadConfig{MassKg: 10, Gravity: true, From: "z+", To: "z-"},
		MeshOutputs: []string{"msh", "vtk"},
	},
	"stl": {
		Name: "stl_part", Source: "stl", MeshSize: 1.0, Material: "steel",
		Load:        LoadConfig{MassKg: 10, Gravity: true, From: "z+", To: "z-"},
		MeshOutputs: []string{"msh"},
	},
}

// GetPreset returns a full configuration: defaults overlaid with the named
// preset. It returns nil for an unknown name.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = p.Name
	cfg.Source = p.Source
	cfg.MeshSize = p.MeshSize
	cfg.Material = p.Material
	cfg.Load = p.Load
	if p.Block != (BlockConfig{}) {
		cfg.Block = p.Block
	}
	if p.Cylinder != (CylinderConfig{}) {
		cfg.Cylinder = p.Cylinder
	}
	if len(p.MeshOutputs) > 0 {
		cfg.MeshOutputs = append([]string(nil), p.MeshOutputs...)
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
