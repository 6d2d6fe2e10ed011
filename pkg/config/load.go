package config

import (
	"encoding/json"
	"io"
	"os"
)

// Load reads and validates a Config from path. The on-disk format is the
// input-reader contract's JSON rendering: no third-party configuration
// parser (toml/yaml/ini) appears anywhere in the retrieval pack, so this
// sticks to encoding/json rather than inventing a dependency (see
// DESIGN.md).
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (*Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
