package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/conflict"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/reachability"
)

// #region config-types

// Config holds every tunable the diagnostic tools read from the
// environment. Defaults match the engine defaults, so an empty
// environment behaves exactly like the in-code factories.
type Config struct {
	DBPath      string `env:"PROTODIAG_DB_PATH" envDefault:"protodiag.db"`
	CatalogPath string `env:"PROTODIAG_CATALOG" envDefault:"prototypes.yaml"`

	// reachability
	KnifeEdgeEpsilon float64 `env:"PROTODIAG_KNIFE_EDGE_EPSILON" envDefault:"0.001"`
	CriticalWidth    float64 `env:"PROTODIAG_CRITICAL_WIDTH" envDefault:"0.000001"`
	DefaultThreshold float64 `env:"PROTODIAG_DEFAULT_THRESHOLD" envDefault:"0.5"`

	// conflict detection
	ActiveAxisEpsilon       float64 `env:"PROTODIAG_ACTIVE_AXIS_EPSILON" envDefault:"0.08"`
	StrongAxisThreshold     float64 `env:"PROTODIAG_STRONG_AXIS_THRESHOLD" envDefault:"0.25"`
	FenceMultiplier         float64 `env:"PROTODIAG_FENCE_MULTIPLIER" envDefault:"1.5"`
	MinIQRFloor             float64 `env:"PROTODIAG_MIN_IQR_FLOOR" envDefault:"0.5"`
	SignTensionMinMagnitude float64 `env:"PROTODIAG_SIGN_TENSION_MIN_MAGNITUDE" envDefault:"0.25"`
	SignTensionMinHighAxes  int     `env:"PROTODIAG_SIGN_TENSION_MIN_HIGH_AXES" envDefault:"3"`
	SignBalanceThreshold    float64 `env:"PROTODIAG_SIGN_BALANCE_THRESHOLD" envDefault:"0.34"`

	// overlap evaluation
	SampleCount                  int     `env:"PROTODIAG_SAMPLE_COUNT" envDefault:"2000"`
	Workers                      int     `env:"PROTODIAG_WORKERS" envDefault:"1"`
	Seed                         int64   `env:"PROTODIAG_SEED" envDefault:"1"`
	DominanceDelta               float64 `env:"PROTODIAG_DOMINANCE_DELTA" envDefault:"0.15"`
	DivergenceExamples           int     `env:"PROTODIAG_DIVERGENCE_EXAMPLES" envDefault:"5"`
	MinCoPassSamples             int     `env:"PROTODIAG_MIN_CO_PASS_SAMPLES" envDefault:"1"`
	MinPassSamplesForConditional int     `env:"PROTODIAG_MIN_PASS_SAMPLES_FOR_CONDITIONAL" envDefault:"200"`
}

// #endregion config-types

// #region load

// Load reads configuration from a .env file (if present) and the
// process environment. Environment variables win over .env entries.
func Load() (Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.SampleCount <= 0 {
		return Config{}, fmt.Errorf("PROTODIAG_SAMPLE_COUNT must be positive, got %d", cfg.SampleCount)
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("PROTODIAG_WORKERS must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

// #endregion load

// #region mappers

// ReachabilityConfig maps the environment values onto the analyzer config.
func (c Config) ReachabilityConfig() reachability.Config {
	rc := reachability.DefaultConfig()
	rc.KnifeEdgeEpsilon = c.KnifeEdgeEpsilon
	rc.CriticalWidth = c.CriticalWidth
	rc.DefaultThreshold = c.DefaultThreshold
	return rc
}

// ConflictConfig maps the environment values onto the detector config.
func (c Config) ConflictConfig() conflict.Config {
	cc := conflict.DefaultConfig()
	cc.ActiveAxisEpsilon = c.ActiveAxisEpsilon
	cc.StrongAxisThreshold = c.StrongAxisThreshold
	cc.FenceMultiplier = c.FenceMultiplier
	cc.MinIQRFloor = c.MinIQRFloor
	cc.SignTensionMinMagnitude = c.SignTensionMinMagnitude
	cc.SignTensionMinHighAxes = c.SignTensionMinHighAxes
	cc.SignBalanceThreshold = c.SignBalanceThreshold
	return cc
}

// OverlapConfig maps the environment values onto the evaluator config.
func (c Config) OverlapConfig() overlap.Config {
	oc := overlap.DefaultConfig()
	oc.SampleCount = c.SampleCount
	oc.Workers = c.Workers
	oc.DominanceDelta = c.DominanceDelta
	oc.DivergenceExamplesK = c.DivergenceExamples
	oc.MinCoPassSamples = c.MinCoPassSamples
	oc.MinPassSamplesForConditional = c.MinPassSamplesForConditional
	return oc
}

// #endregion mappers
