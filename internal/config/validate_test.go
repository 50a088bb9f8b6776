package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Empty(t, issues)
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "logging.level", issues[0].Path)

	for _, lvl := range []string{"silent", "fatal", "error", "warn", "info", "debug", "trace", ""} {
		cfg := Defaults()
		cfg.Logging.Level = lvl
		assert.Empty(t, Validate(&cfg), "level %q should be valid", lvl)
	}
}

func TestValidate_ConsoleStyle(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.ConsoleStyle = "compact"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "logging.consoleStyle", issues[0].Path)
}

func TestValidate_TickInterval(t *testing.T) {
	cfg := Defaults()
	cfg.Host.TickInterval = 0
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "host.tickInterval", issues[0].Path)
}

func TestValidate_MonitorAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Monitor.Addr = "not-an-addr"
	assert.Empty(t, Validate(&cfg), "disabled monitor is not validated")

	cfg.Monitor.Enabled = true
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "monitor.addr", issues[0].Path)

	cfg.Monitor.Addr = ":8080"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Flows(t *testing.T) {
	cfg := Defaults()
	cfg.Flows = []FlowConfig{
		{Name: "a", Trigger: NodeConfig{Type: "com.rune.discord.on_ready"}},
		{Name: "a", Trigger: NodeConfig{Type: "com.rune.discord.on_message"}, Actions: []NodeConfig{{}}},
		{Trigger: NodeConfig{}},
	}
	issues := Validate(&cfg)

	var paths []string
	for _, is := range issues {
		paths = append(paths, is.Path)
	}
	assert.ElementsMatch(t, []string{
		"flows[1].name",
		"flows[1].actions[0].type",
		"flows[2].name",
		"flows[2].trigger.type",
	}, paths)
}

func TestValidationIssue_String(t *testing.T) {
	is := ValidationIssue{Path: "host.tickInterval", Message: "too small"}
	assert.Equal(t, "host.tickInterval: too small", is.String())
}
