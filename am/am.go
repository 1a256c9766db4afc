// Package am ("I am") holds the atomspace configuration: one struct per
// component, loaded through viper from am.toml files and ATOMSPACE_*
// environment variables.
package am

// Config represents the complete atomspace configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Inference InferenceConfig `mapstructure:"inference"`
	Attention AttentionConfig `mapstructure:"attention"`
	Mining    MiningConfig    `mapstructure:"mining"`
	Pulse     PulseConfig     `mapstructure:"pulse"`
	Log       LogConfig       `mapstructure:"log"`
}

// StoreConfig configures the atom graph store
type StoreConfig struct {
	AutoID bool `mapstructure:"auto_id"` // assign a random id to atoms inserted without one (default: true)
}

// MatcherConfig configures the pattern matcher
type MatcherConfig struct {
	MaxCalls         int      `mapstructure:"max_calls"`         // recursive calls per candidate root (0 = unbounded, default: 100000)
	Parallelism      int      `mapstructure:"parallelism"`       // concurrent root evaluations (default: 1)
	AttentionalFocus *float64 `mapstructure:"attentional_focus"` // minimum STI for a root to be considered (nil = all atoms)
}

// InferenceConfig configures the forward-chaining rule engine
type InferenceConfig struct {
	SignificanceThreshold  float64  `mapstructure:"significance_threshold"`    // strength·confidence cutoff (default: 0.3)
	MaxSteps               int      `mapstructure:"max_steps"`                 // default step bound for the CLI and pulse task (default: 10)
	MaxApplicationsPerStep int      `mapstructure:"max_applications_per_step"` // rule applications per step (0 = unbounded)
	EnableFuzzy            bool     `mapstructure:"enable_fuzzy"`              // register concept intersection/union rules (default: false)
	DisabledRules          []string `mapstructure:"disabled_rules"`            // rule names to leave out of the registry
	TemporalScale          float64  `mapstructure:"temporal_scale"`            // time gap at which precedence strength decays to 1/e (default: 1)
	AttentionWeighted      bool     `mapstructure:"attention_weighted"`        // order rule applications by premise STI and truth (default: true)
	MaxActiveRules         int      `mapstructure:"max_active_rules"`          // rules applied per step, best first (0 = all)
}

// AttentionConfig configures the ECAN attention bank
type AttentionConfig struct {
	MaxSTI float64 `mapstructure:"max_sti"` // default: 100
	MinSTI float64 `mapstructure:"min_sti"` // default: -100
	MaxLTI float64 `mapstructure:"max_lti"` // default: 100
	MinLTI float64 `mapstructure:"min_lti"` // default: 0

	TotalSTI      float64 `mapstructure:"total_sti"`      // funds redistributed per allocation (default: 100)
	FocusFraction float64 `mapstructure:"focus_fraction"` // share of atoms receiving funds (default: 0.2)

	SpreadingFactor      float64 `mapstructure:"spreading_factor"`       // share of STI pushed to neighbours (default: 0.4)
	SpreadingThreshold   float64 `mapstructure:"spreading_threshold"`    // minimum amount worth spreading (default: 0.15)
	DefaultHebbianWeight float64 `mapstructure:"default_hebbian_weight"` // weight when no HebbianLink exists (default: 0.5)

	DecayRate             float64 `mapstructure:"decay_rate"`             // STI decay per cycle for non-VLTI atoms (default: 0.05)
	RentScale             float64 `mapstructure:"rent_scale"`             // default: 0.8
	VLTIRentDiscount      float64 `mapstructure:"vlti_rent_discount"`     // default: 0.85
	StimulusAmplification float64 `mapstructure:"stimulus_amplification"` // default: 1.2
	HebbianLearningRate   float64 `mapstructure:"hebbian_learning_rate"`  // default: 0.08
	HebbianDecayRate      float64 `mapstructure:"hebbian_decay_rate"`     // default: 0.03

	TreatMissingAsZero bool `mapstructure:"treat_missing_as_zero"` // atoms without attention compete with zero STI/LTI (default: false)
}

// MiningConfig configures the pattern miner
type MiningConfig struct {
	MinSupport      float64 `mapstructure:"min_support"`      // default: 0.1
	MinConfidence   float64 `mapstructure:"min_confidence"`   // default: 0.5
	MaxPatternSize  int     `mapstructure:"max_pattern_size"` // default: 3
	MaxPatterns     int     `mapstructure:"max_patterns"`     // default: 100
	Interestingness string  `mapstructure:"interestingness"`  // frequency | surprisingness | mutual-information | interaction-information (default: frequency)
}

// PulseConfig configures the periodic cycle scheduler
type PulseConfig struct {
	TickerIntervalSeconds int `mapstructure:"ticker_interval_seconds"` // how often tasks run (default: 1, 0 = disabled)
	MaxCyclesPerMinute    int `mapstructure:"max_cycles_per_minute"`   // rate limit across all tasks (0 = unlimited, default: 60)
	InferenceStepsPerTick int `mapstructure:"inference_steps_per_tick"`
}

// LogConfig configures console logging
type LogConfig struct {
	Theme string `mapstructure:"theme"` // everforest | gruvbox
	JSON  bool   `mapstructure:"json"`
}

// File system constants
const (
	DefaultFilePermissions = 0644      // Standard file permissions (rw-r--r--)
	DefaultConfigFile      = "am.toml" // project config file name
)
