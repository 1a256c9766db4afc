package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.auto_id", true)

	// Matcher defaults
	v.SetDefault("matcher.max_calls", 100000) // runaway guard per candidate root
	v.SetDefault("matcher.parallelism", 1)

	// Inference defaults
	v.SetDefault("inference.significance_threshold", 0.3)
	v.SetDefault("inference.max_steps", 10)
	v.SetDefault("inference.max_applications_per_step", 0)
	v.SetDefault("inference.enable_fuzzy", false)
	v.SetDefault("inference.disabled_rules", []string{})
	v.SetDefault("inference.temporal_scale", 1.0)
	v.SetDefault("inference.attention_weighted", true)
	v.SetDefault("inference.max_active_rules", 0)

	// Attention (ECAN) defaults
	v.SetDefault("attention.max_sti", 100.0)
	v.SetDefault("attention.min_sti", -100.0)
	v.SetDefault("attention.max_lti", 100.0)
	v.SetDefault("attention.min_lti", 0.0)
	v.SetDefault("attention.total_sti", 100.0)
	v.SetDefault("attention.focus_fraction", 0.2)
	v.SetDefault("attention.spreading_factor", 0.4)
	v.SetDefault("attention.spreading_threshold", 0.15)
	v.SetDefault("attention.default_hebbian_weight", 0.5)
	v.SetDefault("attention.decay_rate", 0.05)
	v.SetDefault("attention.rent_scale", 0.8)
	v.SetDefault("attention.vlti_rent_discount", 0.85)
	v.SetDefault("attention.stimulus_amplification", 1.2)
	v.SetDefault("attention.hebbian_learning_rate", 0.08)
	v.SetDefault("attention.hebbian_decay_rate", 0.03)
	v.SetDefault("attention.treat_missing_as_zero", false)

	// Mining defaults
	v.SetDefault("mining.min_support", 0.1)
	v.SetDefault("mining.min_confidence", 0.5)
	v.SetDefault("mining.max_pattern_size", 3)
	v.SetDefault("mining.max_patterns", 100)
	v.SetDefault("mining.interestingness", "frequency")

	// Pulse defaults
	v.SetDefault("pulse.ticker_interval_seconds", 1)
	v.SetDefault("pulse.max_cycles_per_minute", 60)
	v.SetDefault("pulse.inference_steps_per_tick", 1)

	// Log defaults
	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.json", false)
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Log.Theme == "" {
		return "everforest"
	}
	return c.Log.Theme
}

// GetParallelism returns the matcher parallelism, at least 1
func (c *Config) GetParallelism() int {
	if c.Matcher.Parallelism < 1 {
		return 1
	}
	return c.Matcher.Parallelism
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Inference: {Threshold: %.2f, MaxSteps: %d}, Attention: {STI: [%.0f,%.0f], TotalSTI: %.0f}}",
		c.Inference.SignificanceThreshold, c.Inference.MaxSteps,
		c.Attention.MinSTI, c.Attention.MaxSTI, c.Attention.TotalSTI)
}
