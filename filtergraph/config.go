// Package filtergraph runs filter graph jobs: raw PCM files in, one raw PCM
// file out, described by a YAML job file.
package filtergraph

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gofiltergraph/filtergraph/filter"
	"gofiltergraph/filtergraph/pcm"
)

const (
	defaultSampleRate   = 48000
	defaultChannels     = 1
	defaultFormat       = pcm.FormatS16
	defaultInputSamples = 1024
)

// Stream describes one raw PCM file.
type Stream struct {
	Path   string
	Format pcm.FrameDescriptor
	// FrameSamples is the number of samples per frame: the read size for an
	// input, the encoder frame size for the output (0 for any).
	FrameSamples int
}

type Config struct {
	Inputs  []Stream
	Output  Stream
	Filters []filter.Spec
}

type invalidConfig struct {
	field string
	err   error
}

func (e invalidConfig) Error() string {
	return "invalid " + e.field + ": " + e.err.Error()
}

func (e invalidConfig) Unwrap() error { return e.err }

type yamlStream struct {
	Path         string `yaml:"path"`
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	SampleFormat string `yaml:"sample_format"`
	FrameSamples int    `yaml:"frame_samples"`
}

type yamlConfig struct {
	Inputs  []yamlStream `yaml:"inputs"`
	Output  yamlStream   `yaml:"output"`
	Chain   string       `yaml:"chain"`
	Filters []struct {
		Name     string `yaml:"name"`
		Options  string `yaml:"options"`
		Instance string `yaml:"instance"`
	} `yaml:"filters"`
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	var cfg Config

	// Inputs
	if len(yc.Inputs) == 0 {
		return Config{}, errors.New("inputs: at least one input is required")
	}
	for i, in := range yc.Inputs {
		s, err := parseStream(fmt.Sprintf("inputs[%d]", i), in, defaultInputSamples)
		if err != nil {
			return Config{}, err
		}
		if s.Path == "" {
			return Config{}, fmt.Errorf("inputs[%d].path is required", i)
		}
		cfg.Inputs = append(cfg.Inputs, s)
	}

	// Output
	out, err := parseStream("output", yc.Output, 0)
	if err != nil {
		return Config{}, err
	}
	if out.Path == "" {
		return Config{}, errors.New("output.path is required")
	}
	cfg.Output = out

	// Filters
	if yc.Chain != "" && len(yc.Filters) > 0 {
		return Config{}, errors.New("chain and filters are mutually exclusive")
	}
	if yc.Chain != "" {
		specs, err := filter.ParseChain(yc.Chain)
		if err != nil {
			return Config{}, invalidConfig{field: "chain", err: err}
		}
		cfg.Filters = specs
	}
	for i, f := range yc.Filters {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return Config{}, fmt.Errorf("filters[%d].name is required", i)
		}
		cfg.Filters = append(cfg.Filters, filter.Spec{
			Name:     name,
			Options:  strings.TrimSpace(f.Options),
			Instance: strings.TrimSpace(f.Instance),
		})
	}
	if err := cfg.checkFilters(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// WithChain returns a copy of c running the chain description desc instead
// of its filters.
func (c Config) WithChain(desc string) (Config, error) {
	specs, err := filter.ParseChain(desc)
	if err != nil {
		return Config{}, invalidConfig{field: "chain", err: err}
	}
	c.Filters = specs
	if err := c.checkFilters(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) checkFilters() error {
	if len(c.Filters) == 0 && len(c.Inputs) > 1 {
		return errors.New("several inputs need a filter chain to combine them")
	}
	return nil
}

func parseStream(field string, ys yamlStream, frameSamples int) (Stream, error) {
	s := Stream{
		Path: strings.TrimSpace(ys.Path),
		Format: pcm.FrameDescriptor{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
			Format:     defaultFormat,
		},
		FrameSamples: frameSamples,
	}
	if ys.SampleRate < 0 {
		return Stream{}, invalidConfig{field: field + ".sample_rate", err: fmt.Errorf("must be positive, got %d", ys.SampleRate)}
	}
	if ys.SampleRate > 0 {
		s.Format.SampleRate = ys.SampleRate
	}
	if ys.Channels < 0 {
		return Stream{}, invalidConfig{field: field + ".channels", err: fmt.Errorf("must be positive, got %d", ys.Channels)}
	}
	if ys.Channels > 0 {
		s.Format.Channels = ys.Channels
	}
	if ys.SampleFormat != "" {
		f, err := pcm.ParseSampleFormat(ys.SampleFormat)
		if err != nil {
			return Stream{}, invalidConfig{field: field + ".sample_format", err: err}
		}
		s.Format.Format = f
	}
	if ys.FrameSamples < 0 {
		return Stream{}, invalidConfig{field: field + ".frame_samples", err: fmt.Errorf("must not be negative, got %d", ys.FrameSamples)}
	}
	if ys.FrameSamples > 0 {
		s.FrameSamples = ys.FrameSamples
	}
	return s, nil
}
