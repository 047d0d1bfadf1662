package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		Project: "demo",
		Model:   "gpt-4o-mini",
		BaseURL: "https://api.openai.com/v1",
	}
}

// TestFromYAML parses a full settings document.
func TestFromYAML(t *testing.T) {
	data := []byte(`
project: support-bot
log_stream: production
system_prompt: "You are helpful."
guardrail_policy_id: pii-block
guardrail_url: https://guard.example.com
model: gpt-4o-mini
base_url: https://api.openai.com/v1
max_tool_rounds: 5
log_blocked_turns: true
temperature: 0.3
`)

	s, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "support-bot", s.Project)
	assert.Equal(t, "production", s.LogStream)
	assert.Equal(t, "You are helpful.", s.SystemPrompt)
	assert.Equal(t, "pii-block", s.GuardrailPolicyID)
	assert.Equal(t, 5, s.MaxToolRounds)
	assert.True(t, s.LogBlockedTurns)
	assert.InDelta(t, 0.3, s.Temperature, 0.001)
	assert.NoError(t, s.Validate())
}

// TestFromJSON parses the JSON shape.
func TestFromJSON(t *testing.T) {
	data := []byte(`{"project":"demo","model":"m1","base_url":"http://x","max_tool_rounds":3}`)

	s, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Project)
	assert.Equal(t, 3, s.MaxToolRounds)
}

// TestFromFile_Extensions routes by file extension.
func TestFromFile_Extensions(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("project: from-yaml"), 0o644))

	jsonPath := filepath.Join(dir, "agent.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"project":"from-json"}`), 0o644))

	badPath := filepath.Join(dir, "agent.toml")
	require.NoError(t, os.WriteFile(badPath, []byte("project = 'x'"), 0o644))

	s, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", s.Project)

	s, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", s.Project)

	_, err = FromFile(badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

// TestFromYAML_Invalid rejects malformed YAML.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("project: [unclosed"))
	require.Error(t, err)
}

// TestFromEnv_Overrides lets set variables win over file values.
func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("AGENTGRAPH_PROJECT", "from-env")
	t.Setenv("AGENTGRAPH_MAX_TOOL_ROUNDS", "7")
	t.Setenv("AGENTGRAPH_LOG_BLOCKED_TURNS", "true")
	t.Setenv("AGENTGRAPH_TEMPERATURE", "0.9")

	s := FromEnv(Settings{
		Project:       "from-file",
		Model:         "m1",
		MaxToolRounds: 2,
	})

	assert.Equal(t, "from-env", s.Project)
	assert.Equal(t, 7, s.MaxToolRounds)
	assert.True(t, s.LogBlockedTurns)
	assert.InDelta(t, 0.9, s.Temperature, 0.001)
	// Unset variables leave file values alone.
	assert.Equal(t, "m1", s.Model)
}

// TestFromEnv_BadValuesIgnored keeps prior values on unparsable input
// and warns about each rejected override.
func TestFromEnv_BadValuesIgnored(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("AGENTGRAPH_MAX_TOOL_ROUNDS", "not-a-number")
	t.Setenv("AGENTGRAPH_TEMPERATURE", "warm")
	t.Setenv("AGENTGRAPH_LOG_BLOCKED_TURNS", "maybe")

	s := FromEnv(Settings{MaxToolRounds: 4})
	assert.Equal(t, 4, s.MaxToolRounds)
	assert.Zero(t, s.Temperature)
	assert.False(t, s.LogBlockedTurns)

	out := buf.String()
	assert.Contains(t, out, "ignoring unparsable env override")
	assert.Contains(t, out, "AGENTGRAPH_MAX_TOOL_ROUNDS")
	assert.Contains(t, out, "AGENTGRAPH_TEMPERATURE")
	assert.Contains(t, out, "AGENTGRAPH_LOG_BLOCKED_TURNS")
}

// TestValidate covers each failure in order.
func TestValidate(t *testing.T) {
	assert.NoError(t, validSettings().Validate())

	s := validSettings()
	s.Project = ""
	assert.ErrorIs(t, s.Validate(), ErrMissingProject)

	s = validSettings()
	s.Model = ""
	assert.ErrorIs(t, s.Validate(), ErrMissingModel)

	s = validSettings()
	s.BaseURL = ""
	assert.ErrorIs(t, s.Validate(), ErrMissingBaseURL)

	s = validSettings()
	s.MaxToolRounds = -1
	assert.ErrorIs(t, s.Validate(), ErrNegativeRounds)

	s = validSettings()
	s.Temperature = 2.5
	assert.ErrorIs(t, s.Validate(), ErrBadTemperature)

	s = validSettings()
	s.GuardrailPolicyID = "pii-block"
	assert.ErrorIs(t, s.Validate(), ErrGuardrailNoURL)

	s.GuardrailURL = "https://guard.example.com"
	assert.NoError(t, s.Validate())
}
