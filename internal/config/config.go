// Package config loads tinygraph's process configuration from flags,
// environment variables, and an optional config file, in that precedence
// order, the way the rest of the corpus layers viper over pflag.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is tinygraph's full process configuration.
type Config struct {
	Allocator AllocatorConfig `mapstructure:"allocator"`
	Optimize  OptimizeConfig  `mapstructure:"optimize"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AllocatorConfig controls the graph's embedded offset allocator.
type AllocatorConfig struct {
	Alignment int    `mapstructure:"alignment"`
	Runtime   string `mapstructure:"runtime"`
}

// OptimizeConfig toggles the rewrite passes Graph.Optimize applies.
type OptimizeConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// flagBinder is the subset of *cobra.Command that Load needs; accepting the
// interface rather than the concrete type keeps config decoupled from cobra.
type flagBinder interface {
	Flags() *pflag.FlagSet
}

// LoadOptions parameterizes Load.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

// DefaultConfig returns tinygraph's baseline configuration.
func DefaultConfig() Config {
	return Config{
		Allocator: AllocatorConfig{
			Alignment: 8,
			Runtime:   "heap",
		},
		Optimize: OptimizeConfig{
			Enabled: true,
		},
		LogLevel: "info",
	}
}

// RegisterFlags registers the pflag surface Load will later bind, mirroring
// every field DefaultConfig sets.
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Int("allocator-alignment", defaults.Allocator.Alignment, "Byte alignment the offset allocator rounds every allocation up to")
	fs.String("allocator-runtime", defaults.Allocator.Runtime, "Runtime collaborator backing tensor storage (heap)")
	fs.Bool("optimize", defaults.Optimize.Enabled, "Run the Transpose/MatMul fusion rewrites before planning memory")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

// Load resolves a Config from (in increasing precedence) defaults, an
// optional config file, environment variables prefixed TINYGRAPH_, and
// bound command flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("TINYGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tinygraph")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("allocator.alignment", c.Allocator.Alignment)
	v.SetDefault("allocator.runtime", c.Allocator.Runtime)
	v.SetDefault("optimize.enabled", c.Optimize.Enabled)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("allocator.alignment", "allocator-alignment")
	v.RegisterAlias("allocator.runtime", "allocator-runtime")
	v.RegisterAlias("optimize.enabled", "optimize")
	v.RegisterAlias("log_level", "log-level")
}
