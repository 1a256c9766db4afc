package am

import (
	"math"

	"github.com/teranos/atomspace/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Matcher.MaxCalls < 0 {
		return errors.Newf("matcher.max_calls must be >= 0, got %d", c.Matcher.MaxCalls)
	}
	if c.Matcher.Parallelism < 0 {
		return errors.Newf("matcher.parallelism must be >= 0, got %d", c.Matcher.Parallelism)
	}

	if err := c.Inference.Validate(); err != nil {
		return err
	}
	if err := c.Attention.Validate(); err != nil {
		return err
	}

	if c.Mining.MinSupport < 0 || c.Mining.MinSupport > 1 {
		return errors.Newf("mining.min_support must be in [0,1], got %f", c.Mining.MinSupport)
	}
	if c.Mining.MinConfidence < 0 || c.Mining.MinConfidence > 1 {
		return errors.Newf("mining.min_confidence must be in [0,1], got %f", c.Mining.MinConfidence)
	}
	if c.Mining.MaxPatternSize < 0 {
		return errors.Newf("mining.max_pattern_size must be >= 0, got %d", c.Mining.MaxPatternSize)
	}
	switch c.Mining.Interestingness {
	case "", "frequency", "surprisingness", "mutual-information", "interaction-information":
	default:
		return errors.WithHint(
			errors.Newf("mining.interestingness %q is not supported", c.Mining.Interestingness),
			"use frequency, surprisingness, mutual-information or interaction-information")
	}

	// Pulse: 0 = disabled/unlimited, negative = invalid
	if c.Pulse.TickerIntervalSeconds < 0 {
		return errors.Newf("pulse.ticker_interval_seconds must be >= 0, got %d", c.Pulse.TickerIntervalSeconds)
	}
	if c.Pulse.MaxCyclesPerMinute < 0 {
		return errors.Newf("pulse.max_cycles_per_minute must be >= 0, got %d", c.Pulse.MaxCyclesPerMinute)
	}
	if c.Pulse.InferenceStepsPerTick < 0 {
		return errors.Newf("pulse.inference_steps_per_tick must be >= 0, got %d", c.Pulse.InferenceStepsPerTick)
	}

	return nil
}

// Validate checks the inference section
func (c InferenceConfig) Validate() error {
	if c.SignificanceThreshold < 0 || c.SignificanceThreshold > 1 {
		return errors.Newf("inference.significance_threshold must be in [0,1], got %f", c.SignificanceThreshold)
	}
	if c.MaxSteps < 0 {
		return errors.Newf("inference.max_steps must be >= 0, got %d", c.MaxSteps)
	}
	if c.MaxApplicationsPerStep < 0 {
		return errors.Newf("inference.max_applications_per_step must be >= 0, got %d", c.MaxApplicationsPerStep)
	}
	if c.TemporalScale < 0 || math.IsNaN(c.TemporalScale) {
		return errors.Newf("inference.temporal_scale must be >= 0, got %f", c.TemporalScale)
	}
	if c.MaxActiveRules < 0 {
		return errors.Newf("inference.max_active_rules must be >= 0, got %d", c.MaxActiveRules)
	}
	return nil
}

// Validate checks the attention section
func (c AttentionConfig) Validate() error {
	if c.MinSTI > c.MaxSTI {
		return errors.Newf("attention.min_sti (%f) must not exceed attention.max_sti (%f)", c.MinSTI, c.MaxSTI)
	}
	if c.MinLTI < 0 || c.MinLTI > c.MaxLTI {
		return errors.Newf("attention.lti window [%f,%f] is invalid", c.MinLTI, c.MaxLTI)
	}
	if c.MaxLTI == 0 {
		return errors.WithHint(errors.New("attention.max_lti must be > 0"), "omit it for the default of 100")
	}
	for name, v := range map[string]float64{
		"focus_fraction":         c.FocusFraction,
		"spreading_factor":       c.SpreadingFactor,
		"decay_rate":             c.DecayRate,
		"vlti_rent_discount":     c.VLTIRentDiscount,
		"hebbian_decay_rate":     c.HebbianDecayRate,
		"default_hebbian_weight": c.DefaultHebbianWeight,
	} {
		if v < 0 || v > 1 {
			return errors.Newf("attention.%s must be in [0,1], got %f", name, v)
		}
	}
	if c.SpreadingThreshold < 0 || c.RentScale < 0 || c.StimulusAmplification < 0 || c.HebbianLearningRate < 0 {
		return errors.New("attention rates and thresholds must be >= 0")
	}
	return nil
}
