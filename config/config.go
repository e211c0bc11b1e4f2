// Package config provides tuning-parameter loading for the creature engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine tuning parameters.
type Config struct {
	Themes      ThemeConfig       `yaml:"themes"`
	Environment EnvironmentConfig `yaml:"environment"`
	Evolution   EvolutionConfig   `yaml:"evolution"`
	Mutation    MutationConfig    `yaml:"mutation"`
	Naming      NamingConfig      `yaml:"naming"`
}

// ThemeConfig holds theme stack parameters.
type ThemeConfig struct {
	MinStrength            float64 `yaml:"min_strength"`            // Lower bound for a theme's strength
	MaxStrength            float64 `yaml:"max_strength"`            // Upper bound for a theme's strength
	MaxActive              int     `yaml:"max_active"`              // Stack size limit
	ResonanceThreshold     float64 `yaml:"resonance_threshold"`     // Minimum resonance to accept absent explicit rules
	ManifestationThreshold float64 `yaml:"manifestation_threshold"` // Strength at which manifestations express
	AbilityThreshold       float64 `yaml:"ability_threshold"`       // Strength at which theme abilities express
	InteractionThreshold   float64 `yaml:"interaction_threshold"`   // Interaction strength at which emergent effects apply
}

// EnvironmentConfig holds adaptation and stress parameters.
type EnvironmentConfig struct {
	MinExposureTime    int     `yaml:"min_exposure_time"`   // Smallest exposure unit; one adaptation cycle consumes this much
	AdaptationRate     float64 `yaml:"adaptation_rate"`     // Adaptation gained per cycle
	MaxAdaptation      float64 `yaml:"max_adaptation"`      // Adaptation level cap
	AbilityThreshold   float64 `yaml:"ability_threshold"`   // Adaptation level at which abilities can develop
	SynthesisThreshold float64 `yaml:"synthesis_threshold"` // Adaptation level at which synthesis becomes possible
	StressThreshold    float64 `yaml:"stress_threshold"`    // Stressors at or below this intensity are discarded
	LethalThreshold    float64 `yaml:"lethal_threshold"`    // Stressor intensity that fails the operation
	StressPenalty      float64 `yaml:"stress_penalty"`      // Potential lost per point of same-source stressor intensity
}

// EvolutionConfig holds evolutionary pressure and path parameters.
type EvolutionConfig struct {
	MaxStage              int     `yaml:"max_stage"`               // Final evolution stage
	EnvironmentalWeight   float64 `yaml:"environmental_weight"`    // Pressure per point of adaptation
	ThemeWeight           float64 `yaml:"theme_weight"`            // Pressure per point of theme strength
	MutationBonus         float64 `yaml:"mutation_bonus"`          // Flat pressure once mutated
	EnvironmentalPathGate float64 `yaml:"environmental_path_gate"` // Adaptation needed before an environment offers a path
	TraitStrengthBonus    float64 `yaml:"trait_strength_bonus"`    // Dominance bonus per trait strength point
}

// MutationConfig holds adaptive-mutation parameters.
type MutationConfig struct {
	EnvironmentalGate float64 `yaml:"environmental_gate"` // Adaptation level that makes an environment a mutation source
	CatalystBoost     float64 `yaml:"catalyst_boost"`     // Weight multiplier for candidates matching a catalyst
	CatalystWeight    float64 `yaml:"catalyst_weight"`    // Base weight for the catalyst's own synthetic candidate
	AdaptationBoost   float64 `yaml:"adaptation_boost"`   // Adaptation granted by an environmental mutation
}

// NamingConfig holds name generation parameters.
type NamingConfig struct {
	PrefixChance      float64 `yaml:"prefix_chance"`      // Probability of a size prefix
	EnvironmentChance float64 `yaml:"environment_chance"` // Probability per environmental name part
}

// Load reads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Themes.MaxStrength <= c.Themes.MinStrength {
		return fmt.Errorf("themes: max_strength must exceed min_strength")
	}
	if c.Themes.MaxActive < 1 {
		return fmt.Errorf("themes: max_active must be at least 1")
	}
	if c.Environment.MinExposureTime < 1 {
		return fmt.Errorf("environment: min_exposure_time must be positive")
	}
	if c.Environment.AdaptationRate <= 0 {
		return fmt.Errorf("environment: adaptation_rate must be positive")
	}
	if c.Environment.LethalThreshold <= c.Environment.StressThreshold {
		return fmt.Errorf("environment: lethal_threshold must exceed stress_threshold")
	}
	if c.Evolution.MaxStage < 1 {
		return fmt.Errorf("evolution: max_stage must be at least 1")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
