// Package data holds the embedded default records.
package data

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Specialization is one service area shown on the site
type Specialization struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"desc"`
	Icon        string `yaml:"icon" json:"icon"`
	Code        string `yaml:"code" json:"code"`
}

// Seed is the set of records written into an empty store
type Seed struct {
	Users           []map[string]any            `yaml:"users"`
	Records         map[string][]map[string]any `yaml:"records,omitempty"`
	Specializations []Specialization            `yaml:"specializations"`
}

// Default returns the embedded seed
func Default() (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(defaultSeed, &s); err != nil {
		return nil, fmt.Errorf("embedded seed: %w", err)
	}
	return &s, nil
}

// ReadSeed decodes a seed file
func ReadSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &s, nil
}
