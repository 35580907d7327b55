// Package config collects the tunable settings of every processing stage
// into a single JSON document, so a batch run can be described by one file
// instead of a flag per knob.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ThiagoPoppe/parc/analysis"
	"github.com/ThiagoPoppe/parc/beatsync"
	"github.com/ThiagoPoppe/parc/pipeline"
	"github.com/ThiagoPoppe/parc/transcode"
)

// Config aggregates the per-stage configuration. Nil sections select the
// owning package's defaults, so a file only needs the settings it overrides.
type Config struct {
	Analyzer *analysis.AnalyzerConfig `json:"analyzer,omitempty"`
	Decoder  *transcode.DecoderConfig `json:"decoder,omitempty"`
	Windows  *pipeline.Config         `json:"windows,omitempty"`
	Runner   *pipeline.RunnerConfig   `json:"runner,omitempty"`
}

// Default returns a Config holding every stage's default settings.
func Default() *Config {
	return &Config{
		Analyzer: analysis.DefaultAnalyzerConfig(),
		Decoder:  transcode.DefaultDecoderConfig(),
		Windows:  pipeline.DefaultConfig(),
		Runner:   pipeline.DefaultRunnerConfig(),
	}
}

// Load reads a JSON config file and overlays it on Default, so fields the
// file omits keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// Save writes the config as indented JSON, suitable as a starting point for
// hand editing.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-section consistency: the decoder must deliver PCM at
// the rate the analyzer's filterbank was built for.
func (c *Config) Validate() error {
	if c.Decoder != nil && c.Analyzer != nil && c.Decoder.TargetSampleRate != c.Analyzer.SampleRate {
		return fmt.Errorf("decoder targets %d Hz but the analyzer expects %d Hz",
			c.Decoder.TargetSampleRate, c.Analyzer.SampleRate)
	}
	return nil
}

// AlignerConfig derives the beat aligner geometry from the analyzer section,
// keeping both stages on the same frame grid. Returns nil when the analyzer
// section is absent.
func (c *Config) AlignerConfig() *beatsync.AlignerConfig {
	if c.Analyzer == nil {
		return nil
	}
	return &beatsync.AlignerConfig{
		SampleRate: c.Analyzer.SampleRate,
		HopSize:    c.Analyzer.HopSize,
	}
}
