package policy

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML policy file and compiles it. Sections missing from the
// file are taken from DefaultConfig; a section present in the file replaces
// the built-in one entirely.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	p, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

// fileConfig distinguishes an absent section (nil) from an empty one.
type fileConfig struct {
	Headers   *[]HeaderRule   `yaml:"headers"`
	Redirects *[]RedirectRule `yaml:"redirects"`
	Images    *AssetPolicy    `yaml:"images"`
}

// Parse decodes a YAML policy document. Unknown keys are rejected so typos
// do not silently drop rules.
func Parse(data []byte) (Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("failed to parse policy: %w", err)
	}

	cfg := DefaultConfig()
	if fc.Headers != nil {
		cfg.Headers = *fc.Headers
	}
	if fc.Redirects != nil {
		cfg.Redirects = *fc.Redirects
	}
	if fc.Images != nil {
		cfg.Images = *fc.Images
	}
	return cfg, nil
}
