package config

import "time"

// Config is the root configuration for the discordbridge host.
type Config struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Host    HostConfig    `yaml:"host,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Monitor MonitorConfig `yaml:"monitor,omitempty"`
	Flows   []FlowConfig  `yaml:"flows,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HostConfig controls the tick loop and environment scopes.
type HostConfig struct {
	TickInterval time.Duration     `yaml:"tickInterval,omitempty"`
	EnvFile      string            `yaml:"envFile,omitempty"` // app-scope .env; relative paths resolve under the base dir
	FlowEnv      map[string]string `yaml:"flowEnv,omitempty"`
}

// StoreConfig selects where plugin settings are persisted.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite file; ":memory:" for ephemeral
}

// MonitorConfig controls the HTTP monitor server.
type MonitorConfig struct {
	Enabled        bool     `yaml:"enabled,omitempty"`
	Addr           string   `yaml:"addr,omitempty"`
	Token          string   `yaml:"token,omitempty"`          // optional bearer token for /ws and /metrics; supports ${VAR}
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"` // browser origins allowed to open /ws
}

// FlowConfig wires one trigger node to an ordered list of actions.
type FlowConfig struct {
	Name       string            `yaml:"name"`
	Trigger    NodeConfig        `yaml:"trigger"`
	Actions    []NodeConfig      `yaml:"actions,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"` // flow-wide properties merged under each node's own
}

// NodeConfig names a node type and its literal inputs/properties. Input
// values starting with "$" reference an output of an earlier node.
type NodeConfig struct {
	Type       string            `yaml:"type"`
	Inputs     map[string]string `yaml:"inputs,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}
