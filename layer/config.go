package layer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the data-layer parameters. Mean values are given in the
// output channel order (BGR) and get subtracted per channel after decoding.
//
// Example YAML:
//
//	rootDir: /data/visimportance
//	split: train
//	mean: [104.00698793, 116.66876762, 122.67891434]
//	binarize: true
//	seed: 1337
type Config struct {
	// RootDir is the directory holding the GDI/ data tree
	RootDir string `yaml:"rootDir"`

	// Split names the manifest file and decides train-vs-eval behavior
	Split string `yaml:"split"`

	// Mean holds exactly three per-channel values to subtract
	Mean []float32 `yaml:"mean"`

	// Randomize draws a random sample each step instead of cycling in
	// manifest order. Defaults to true; evaluation splits ignore it.
	Randomize *bool `yaml:"randomize"`

	// Seed fixes the random draw sequence. Unset means time-seeded.
	Seed *int64 `yaml:"seed"`

	// Binarize thresholds importance values to {0,1} instead of
	// rescaling them to [0,1]
	Binarize *bool `yaml:"binarize"`
}

// Validate checks that every required field is present and well formed.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return newConfigurationError("rootDir is required")
	}
	if c.Split == "" {
		return newConfigurationError("split is required")
	}
	if len(c.Mean) != 3 {
		return newConfigurationError("mean must have exactly 3 values, got %d", len(c.Mean))
	}
	if c.Binarize == nil {
		return newConfigurationError("binarize is required")
	}
	return nil
}

// randomize resolves the effective randomization flag. Splits without
// "train" in their name always iterate deterministically.
func (c *Config) randomize() bool {
	if !strings.Contains(c.Split, "train") {
		return false
	}
	if c.Randomize == nil {
		return true
	}
	return *c.Randomize
}

// LoadConfig reads and validates a layer configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %v", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
