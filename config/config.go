// Package config loads settings for the ntuple2048 binaries from, in
// increasing precedence: defaults, an optional config file, NTUPLE_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigAlpha        = "alpha"
	ConfigGamma        = "gamma"
	ConfigEpsilon      = "epsilon"
	ConfigEpsilonDecay = "epsilon-decay"
	ConfigEpsilonMin   = "epsilon-min"
	ConfigEpisodes     = "episodes"
	ConfigUnit         = "unit"
	ConfigSeed         = "seed"
	ConfigLoad         = "load"
	ConfigSave         = "save"
	ConfigPatterns     = "patterns"
	ConfigWeightCap    = "weight-cap"
	ConfigThreads      = "threads"
	ConfigEvalGames    = "eval-games"
	ConfigSeedsFile    = "seeds-file"
	ConfigStatsDB      = "stats-db"
	ConfigNatsURL      = "nats-url"
	ConfigNatsSubject  = "nats-subject"
	ConfigRender       = "render"
	ConfigDebug        = "debug"
	ConfigConfigFile   = "config-file"
)

const envPrefix = "NTUPLE"

// Config is a viper instance with this program's keys registered.
type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigAlpha, 0.1)
	c.SetDefault(ConfigGamma, 0.99)
	c.SetDefault(ConfigEpsilon, 0.1)
	c.SetDefault(ConfigEpsilonDecay, 0.9995)
	c.SetDefault(ConfigEpsilonMin, 0.01)
	c.SetDefault(ConfigEpisodes, 10000)
	c.SetDefault(ConfigUnit, 1000)
	c.SetDefault(ConfigSeed, 0)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigEvalGames, 1000)
	c.SetDefault(ConfigNatsSubject, "ntuple2048.blocks")
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ntuple2048", pflag.ContinueOnError)
	fs.Float64(ConfigAlpha, 0.1, "learning rate")
	fs.Float64(ConfigGamma, 0.99, "discount factor")
	fs.Float64(ConfigEpsilon, 0.1, "initial exploration rate")
	fs.Float64(ConfigEpsilonDecay, 0.9995, "multiplicative epsilon decay per episode")
	fs.Float64(ConfigEpsilonMin, 0.01, "exploration floor")
	fs.Int(ConfigEpisodes, 10000, "number of training episodes")
	fs.Int(ConfigUnit, 1000, "episodes per statistics block")
	fs.Int64(ConfigSeed, 0, "random seed; 0 picks one")
	fs.String(ConfigLoad, "", "checkpoint to load before starting")
	fs.String(ConfigSave, "", "where to save the checkpoint when done")
	fs.String(ConfigPatterns, "", "YAML pattern-set file; empty uses the default set")
	fs.Int64(ConfigWeightCap, 0, "max weight cells across all features; 0 derives it from system memory")
	fs.Int(ConfigThreads, runtime.NumCPU(), "goroutines for evaluation games")
	fs.Int(ConfigEvalGames, 1000, "number of greedy evaluation games")
	fs.String(ConfigSeedsFile, "", "file of evaluation seeds (written if missing)")
	fs.String(ConfigStatsDB, "", "SQLite file to record training blocks in")
	fs.String(ConfigNatsURL, "", "NATS server to publish training blocks to")
	fs.String(ConfigNatsSubject, "ntuple2048.blocks", "subject for published training blocks")
	fs.Bool(ConfigRender, false, "print the board after every step")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigConfigFile, "", "YAML, JSON or TOML config file")
	return fs
}

// Load parses args and merges in the environment and, if given, the
// config file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if cf := c.GetString(ConfigConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return c.Validate()
}

// Validate checks that the learning parameters make sense.
func (c *Config) Validate() error {
	var errs []error
	if a := c.GetFloat64(ConfigAlpha); a <= 0 {
		errs = append(errs, fmt.Errorf("alpha must be positive, got %g", a))
	}
	if g := c.GetFloat64(ConfigGamma); g < 0 || g > 1 {
		errs = append(errs, fmt.Errorf("gamma must be in [0, 1], got %g", g))
	}
	for _, k := range []string{ConfigEpsilon, ConfigEpsilonMin} {
		if e := c.GetFloat64(k); e < 0 || e > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0, 1], got %g", k, e))
		}
	}
	if d := c.GetFloat64(ConfigEpsilonDecay); d <= 0 || d > 1 {
		errs = append(errs, fmt.Errorf("epsilon-decay must be in (0, 1], got %g", d))
	}
	if u := c.GetInt(ConfigUnit); u <= 0 {
		errs = append(errs, fmt.Errorf("unit must be positive, got %d", u))
	}
	if e := c.GetInt(ConfigEpisodes); e < 0 {
		errs = append(errs, fmt.Errorf("episodes must not be negative, got %d", e))
	}
	if w := c.GetInt64(ConfigWeightCap); w < 0 {
		errs = append(errs, fmt.Errorf("weight-cap must not be negative, got %d", w))
	}
	return errors.Join(errs...)
}

// AdjustRelativePaths resolves a relative pattern-set path against
// basepath when it does not exist relative to the working directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigPatterns)
	if p == "" || filepath.IsAbs(p) {
		return
	}
	if _, err := os.Stat(p); err == nil {
		return
	}
	c.Set(ConfigPatterns, filepath.Join(basepath, p))
}

// SanitizedSettings returns all settings with credentials removed, for
// logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if raw, ok := settings[ConfigNatsURL].(string); ok && raw != "" {
		if u, err := url.Parse(raw); err == nil && u.User != nil {
			u.User = url.User("redacted")
			settings[ConfigNatsURL] = u.String()
		}
	}
	return settings
}
