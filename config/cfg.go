package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/simp-lee/epubnav/gesture"
	"github.com/simp-lee/epubnav/surface/sim"
)

// AppName names the program in logs and default file names.
const AppName = "epubnav"

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	ReaderConfig struct {
		Scale        float64 `yaml:"scale" validate:"gt=0"`
		Smooth       bool    `yaml:"smooth"`
		PageWidth    float64 `yaml:"page_width" validate:"gt=0"`
		PageHeight   float64 `yaml:"page_height" validate:"gt=0"`
		CharsPerPage int     `yaml:"chars_per_page" validate:"min=100"`
	}

	GestureConfig struct {
		TapWindow      time.Duration `yaml:"tap_window" validate:"gt=0"`
		PreviousRegion float64       `yaml:"previous_region" validate:"gte=0,lte=1,ltefield=NextRegion"`
		NextRegion     float64       `yaml:"next_region" validate:"gte=0,lte=1"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Reader  ReaderConfig  `yaml:"reader"`
		Gesture GestureConfig `yaml:"gesture"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

var requiredOptions []func(*gencfg.ProcessingOptions)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so yaml.Unmarshal cannot be used
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration expands the embedded template to get defaults, overlays
// the values from the file at path, if any, and validates the result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare expands the embedded configuration template.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Disambiguator returns the gesture settings in the form gesture.New expects.
func (c *GestureConfig) Disambiguator() gesture.Config {
	return gesture.Config{
		Window:         c.TapWindow,
		PreviousRegion: c.PreviousRegion,
		NextRegion:     c.NextRegion,
	}
}

// Surface returns the simulated viewport settings.
func (c *ReaderConfig) Surface() sim.Options {
	return sim.Options{
		PageWidth:    c.PageWidth,
		PageHeight:   c.PageHeight,
		CharsPerPage: c.CharsPerPage,
	}
}
