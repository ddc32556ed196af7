// Package tuning loads the numeric knobs of the decision core from a YAML
// file. Every value has a compiled-in default; the file is optional.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"` // trigger engine cadence

	Tier TierTuning `yaml:"tier"`
	LLM  LLMTuning  `yaml:"llm"`

	MaxRetries     int     `yaml:"max_retries"`      // trigger dispatch retries before suppression
	MaxStepSeconds float64 `yaml:"max_step_seconds"` // upper bound for plan step durations
	MaxSpeechWords int     `yaml:"max_speech_words"`

	BiasSequence [4]float64 `yaml:"bias_sequence"` // descending primary-state biases by rank
}

type TierTuning struct {
	LargeGroupThreshold int     `yaml:"large_group_threshold"`
	ClusterDistance     float64 `yaml:"cluster_distance"`
	GroupSeparation     float64 `yaml:"group_separation"`
}

type LLMTuning struct {
	TimeoutSeconds         float64 `yaml:"timeout_seconds"`
	GlobalCooldownSeconds  float64 `yaml:"global_cooldown_seconds"`
	PerUnitCooldownSeconds float64 `yaml:"per_unit_cooldown_seconds"`
	QueueDepth             int     `yaml:"queue_depth"`
	Model                  string  `yaml:"model"`
}

// Default returns the recommended settings.
func Default() Tuning {
	return Tuning{
		TickRateHz: 10,
		Tier: TierTuning{
			LargeGroupThreshold: 5,
			ClusterDistance:     15,
			GroupSeparation:     25,
		},
		LLM: LLMTuning{
			TimeoutSeconds:         5,
			GlobalCooldownSeconds:  1,
			PerUnitCooldownSeconds: 10,
			QueueDepth:             32,
			Model:                  "gemini-2.5-flash",
		},
		MaxRetries:     3,
		MaxStepSeconds: 60,
		MaxSpeechWords: 12,
		BiasSequence:   [4]float64{0.3, 0.2, 0.1, 0.0},
	}
}

// Load reads a tuning file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.TickRateHz <= 0 {
		return t, fmt.Errorf("tuning.yaml: tick_rate_hz must be positive")
	}
	return t, nil
}
