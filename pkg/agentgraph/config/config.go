// Package config loads agent settings from files and the environment.
//
// Settings are explicit: nothing in the agent packages reads the
// environment directly. Load a Settings from a file, apply environment
// overrides with FromEnv, validate, and pass the values on.
package config

import (
	"errors"
	"fmt"
)

// Settings holds everything needed to stand up an agent.
type Settings struct {
	// Project identifies the owning project in trace logs.
	Project string `yaml:"project" json:"project"`

	// LogStream identifies the log stream traces are written to.
	LogStream string `yaml:"log_stream" json:"log_stream"`

	// SystemPrompt is the system message inserted once per turn.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// GuardrailPolicyID selects the guardrail policy. Empty disables
	// input screening.
	GuardrailPolicyID string `yaml:"guardrail_policy_id" json:"guardrail_policy_id"`

	// Model names the chat model to invoke.
	Model string `yaml:"model" json:"model"`

	// BaseURL is the model service endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// GuardrailURL is the guardrail service endpoint.
	GuardrailURL string `yaml:"guardrail_url" json:"guardrail_url"`

	// MaxToolRounds caps tool-dispatch loops per turn. Zero means the
	// agent default.
	MaxToolRounds int `yaml:"max_tool_rounds" json:"max_tool_rounds"`

	// LogBlockedTurns records guardrail-blocked turns to the trace log.
	LogBlockedTurns bool `yaml:"log_blocked_turns" json:"log_blocked_turns"`

	// Temperature is passed through to the model on every call.
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// Validation errors.
var (
	ErrMissingProject = errors.New("project is required")
	ErrMissingModel   = errors.New("model is required")
	ErrNegativeRounds = errors.New("max_tool_rounds cannot be negative")
	ErrBadTemperature = errors.New("temperature must be in [0, 2]")
	ErrMissingBaseURL = errors.New("base_url is required")
	ErrGuardrailNoURL = errors.New("guardrail_policy_id set without guardrail_url")
)

// Validate reports the first problem with the settings.
func (s Settings) Validate() error {
	if s.Project == "" {
		return ErrMissingProject
	}
	if s.Model == "" {
		return ErrMissingModel
	}
	if s.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if s.MaxToolRounds < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRounds, s.MaxToolRounds)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("%w: %g", ErrBadTemperature, s.Temperature)
	}
	if s.GuardrailPolicyID != "" && s.GuardrailURL == "" {
		return ErrGuardrailNoURL
	}
	return nil
}
