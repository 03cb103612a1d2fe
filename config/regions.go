package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// DefaultRegions are the Southern Federal District slugs scraped when no regions file is given.
func DefaultRegions() []string {
	return []string{
		"krasnodarskiy_kray",
		"adygeya",
		"astrahanskaya_oblast",
		"volgogradskaya_oblast",
		"kalmykiya",
		"rostovskaya_oblast",
		"respublika_krym",
		"sevastopol",
	}
}

type regionsFile struct {
	Regions []string `yaml:"regions"`
}

// LoadRegions reads a YAML document of the form
//
//	regions:
//	  - adygeya
//	  - sevastopol
//
// Blank entries are dropped and order is preserved.
func LoadRegions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read regions file: %w", err)
	}

	var file regionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse regions file %s: %w", path, err)
	}

	regions := make([]string, 0, len(file.Regions))
	for _, r := range file.Regions {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("regions file %s lists no regions", path)
	}
	return regions, nil
}
