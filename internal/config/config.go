// Package config layers defaults, an optional YAML file, GOSXCU_* environment variables and
// command-line flags into one validated Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/solver"
)

// EnvPrefix is prepended to every environment override, e.g. GOSXCU_SOLVER_FTOL.
const EnvPrefix = "GOSXCU"

// Config is the runtime configuration of the CLI and engine.
type Config struct {
	Topology string        `mapstructure:"topology" validate:"required"`
	Solver   SolverConfig  `mapstructure:"solver"`
	Weights  WeightsConfig `mapstructure:"weights"`
	Log      LogConfig     `mapstructure:"log"`
}

// SolverConfig tunes the bounded minimizer.
type SolverConfig struct {
	FTol          float64       `mapstructure:"ftol" validate:"gt=0"`
	MaxIterations int           `mapstructure:"max_iterations" validate:"gt=0"`
	MaxLineSearch int           `mapstructure:"max_line_search" validate:"gt=0"`
	Infeasible    string        `mapstructure:"infeasible" validate:"oneof=penalize abort"`
	Penalty       float64       `mapstructure:"penalty" validate:"gt=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// WeightsConfig weights the metallurgist residuals.
type WeightsConfig struct {
	MaxLoading      float64 `mapstructure:"max_loading" validate:"gte=0"`
	Raffinate       float64 `mapstructure:"raffinate" validate:"gte=0"`
	StrippedOrganic float64 `mapstructure:"stripped_organic" validate:"gte=0"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// New returns a viper instance carrying the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	def := solver.DefaultSettings()
	v.SetDefault("topology", circuit.DefaultTopology)
	v.SetDefault("solver.ftol", def.FTol)
	v.SetDefault("solver.max_iterations", def.MaxIterations)
	v.SetDefault("solver.max_line_search", def.MaxLineSearch)
	v.SetDefault("solver.infeasible", def.Policy.String())
	v.SetDefault("solver.penalty", def.Penalty)
	v.SetDefault("solver.timeout", def.Runtime)
	v.SetDefault("weights.max_loading", 1.0)
	v.SetDefault("weights.raffinate", 1.0)
	v.SetDefault("weights.stripped_organic", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// ReadFile merges a YAML or JSON configuration file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Solver.Infeasible = strings.ToLower(c.Solver.Infeasible)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if w := c.Weights; w.MaxLoading == 0 && w.Raffinate == 0 && w.StrippedOrganic == 0 {
		return nil, errors.New("invalid config: at least one residual weight must be positive")
	}
	top, err := circuit.Lookup(c.Topology)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c.Topology = top.ID
	return &c, nil
}

// SolverSettings converts the solver section into minimizer settings.
func (c *Config) SolverSettings() (solver.Settings, error) {
	policy, err := solver.ParsePolicy(c.Solver.Infeasible)
	if err != nil {
		return solver.Settings{}, err
	}
	return solver.Settings{
		FTol:          c.Solver.FTol,
		MaxIterations: c.Solver.MaxIterations,
		MaxLineSearch: c.Solver.MaxLineSearch,
		Policy:        policy,
		Penalty:       c.Solver.Penalty,
		Runtime:       c.Solver.Timeout,
	}, nil
}

// CircuitWeights converts the weights section.
func (c *Config) CircuitWeights() circuit.Weights {
	return circuit.Weights{
		MaxLoading:      c.Weights.MaxLoading,
		Raffinate:       c.Weights.Raffinate,
		StrippedOrganic: c.Weights.StrippedOrganic,
	}
}
