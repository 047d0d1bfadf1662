package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings.
func FromYAML(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return s, nil
}

// FromJSON parses JSON data into Settings.
func FromJSON(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return s, nil
}

// FromEnv overlays AGENTGRAPH_* environment variables onto s.
// Set variables win over file values; unset variables leave s alone.
// Unparsable numeric or boolean values are logged and leave the prior
// value in place.
//
// Recognized variables:
//
//	AGENTGRAPH_PROJECT
//	AGENTGRAPH_LOG_STREAM
//	AGENTGRAPH_SYSTEM_PROMPT
//	AGENTGRAPH_GUARDRAIL_POLICY_ID
//	AGENTGRAPH_GUARDRAIL_URL
//	AGENTGRAPH_MODEL
//	AGENTGRAPH_BASE_URL
//	AGENTGRAPH_MAX_TOOL_ROUNDS
//	AGENTGRAPH_LOG_BLOCKED_TURNS
//	AGENTGRAPH_TEMPERATURE
func FromEnv(s Settings) Settings {
	setString(&s.Project, "AGENTGRAPH_PROJECT")
	setString(&s.LogStream, "AGENTGRAPH_LOG_STREAM")
	setString(&s.SystemPrompt, "AGENTGRAPH_SYSTEM_PROMPT")
	setString(&s.GuardrailPolicyID, "AGENTGRAPH_GUARDRAIL_POLICY_ID")
	setString(&s.GuardrailURL, "AGENTGRAPH_GUARDRAIL_URL")
	setString(&s.Model, "AGENTGRAPH_MODEL")
	setString(&s.BaseURL, "AGENTGRAPH_BASE_URL")
	setInt(&s.MaxToolRounds, "AGENTGRAPH_MAX_TOOL_ROUNDS")
	setBool(&s.LogBlockedTurns, "AGENTGRAPH_LOG_BLOCKED_TURNS")
	setFloat(&s.Temperature, "AGENTGRAPH_TEMPERATURE")
	return s
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			logBadOverride(key, v, err)
			return
		}
		*dst = n
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logBadOverride(key, v, err)
			return
		}
		*dst = b
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logBadOverride(key, v, err)
			return
		}
		*dst = f
	}
}

// logBadOverride surfaces an unparsable env override. The file value is
// kept, but a typo'd variable must not fail silently.
func logBadOverride(key, value string, err error) {
	slog.Warn("ignoring unparsable env override",
		slog.String("key", key),
		slog.String("value", value),
		slog.String("error", err.Error()),
	)
}
