package model

import (
	"errors"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings of one compiler run. Every field can come from
// a command line flag or from a S6COMPILE_ prefixed environment variable.
type Config struct {
	InputDir        string   `mapstructure:"input-dir"`
	OutputDir       string   `mapstructure:"output-dir"`
	LogtermConfig   string   `mapstructure:"output-logterm-config"`
	ServicesEnabled []string `mapstructure:"services-enabled"`
	Parallelism     int      `mapstructure:"parallelism"`
	Verbose         bool     `mapstructure:"verbose"`
}

// ParseConfig unmarshals v into Config and validates it.
func ParseConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ServicesEnabled = splitNames(cfg.ServicesEnabled)
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input directory is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	return errors.Join(errs...)
}

// splitNames flattens comma separated values, so both repeated flags and
// a single env variable "a,b" work. An empty result means no filtering.
func splitNames(in []string) []string {
	var out []string
	for _, s := range in {
		for _, name := range strings.Split(s, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
