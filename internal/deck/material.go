package deck

import (
	"fmt"
	"sort"
	"strings"
)

// Material is a linear elastic isotropic material in SI units.
type Material struct {
	Name         string  `yaml:"name" json:"name"`
	YoungModulus float64 `yaml:"young_modulus" json:"young_modulus"` // Pa
	Poisson      float64 `yaml:"poisson" json:"poisson"`
	Density      float64 `yaml:"density" json:"density"` // kg/m³
}

func (m Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("material: name is required")
	}
	if m.YoungModulus <= 0 {
		return fmt.Errorf("material %s: young modulus must be positive, got %g", m.Name, m.YoungModulus)
	}
	// Thermodynamic bounds for isotropic materials.
	if m.Poisson <= -1 || m.Poisson >= 0.5 {
		return fmt.Errorf("material %s: poisson ratio must be in (-1, 0.5), got %g", m.Name, m.Poisson)
	}
	if m.Density < 0 {
		return fmt.Errorf("material %s: density must be non-negative, got %g", m.Name, m.Density)
	}
	return nil
}

var Materials = map[string]Material{
	"steel": {
		Name:         "steel",
		YoungModulus: 210e9,
		Poisson:      0.3,
		Density:      7850,
	},
	"carbon_fiber": {
		Name:         "carbon_fiber",
		YoungModulus: 70e9,
		Poisson:      0.1,
		Density:      1600,
	},
	"aluminium": {
		Name:         "aluminium",
		YoungModulus: 69e9,
		Poisson:      0.33,
		Density:      2700,
	},
}

func GetMaterial(name string) (Material, error) {
	m, ok := Materials[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Material{}, fmt.Errorf("unknown material: %s (available: %v)", name, ListMaterials())
	}
	return m, nil
}

func ListMaterials() []string {
	names := make([]string, 0, len(Materials))
	for name := range Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
