package refstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/manifests/core/reference"
)

// Seed is the content of a reference file. Any section may be empty, so a
// rate table is simply a seed holding only rates.
type Seed struct {
	Vehicles []reference.Vehicle  `json:"vehicles" yaml:"vehicles"`
	Clients  []reference.Client   `json:"clients" yaml:"clients"`
	Rates    []reference.CostRate `json:"rates" yaml:"rates"`
}

// LoadSeed decodes a YAML or JSON reference file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	var s Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return Seed{}, fmt.Errorf("unsupported reference file: %s", path)
	}
	if err != nil {
		return Seed{}, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range s.Vehicles {
		s.Vehicles[i].ID = reference.NormalizeID(s.Vehicles[i].ID)
		s.Vehicles[i].Status = reference.ParseStatus(string(s.Vehicles[i].Status))
	}
	return s, nil
}
