package discovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/tastevine/ingest-cli/internal/model"
)

// locationsFile is the YAML shape of a seed-locations file.
type locationsFile struct {
	Locations []model.SearchLocation `yaml:"locations"`
}

// LoadLocations reads an ordered list of seed locations from a YAML file.
func LoadLocations(path string) ([]model.SearchLocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read locations file %s", path)
	}

	var f locationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse locations file %s", path)
	}
	if len(f.Locations) == 0 {
		return nil, eris.Errorf("discovery: locations file %s has no locations", path)
	}

	for i, loc := range f.Locations {
		if loc.RadiusMeters <= 0 {
			f.Locations[i].RadiusMeters = 5000
		}
	}
	return f.Locations, nil
}
