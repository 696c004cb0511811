package refdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a dataset from a YAML file
func LoadYAML(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read reference file: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse reference file %s: %w", path, err)
	}
	if ds.Source == "" {
		ds.Source = "file:" + path
	}

	return ds, nil
}
