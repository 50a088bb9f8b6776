package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in flow
// env values and node properties so tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Monitor.Token = expandEnvVars(cfg.Monitor.Token)
	for k, v := range cfg.Host.FlowEnv {
		cfg.Host.FlowEnv[k] = expandEnvVars(v)
	}
	for i := range cfg.Flows {
		f := &cfg.Flows[i]
		expandMap(f.Properties)
		expandMap(f.Trigger.Properties)
		for j := range f.Actions {
			expandMap(f.Actions[j].Properties)
		}
	}
}

func expandMap(m map[string]string) {
	for k, v := range m {
		m[k] = expandEnvVars(v)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if cfg.Host.TickInterval == 0 {
		cfg.Host.TickInterval = DefaultTickInterval
	}
	if cfg.Host.EnvFile == "" {
		cfg.Host.EnvFile = DefaultEnvFile
	}
	if cfg.Monitor.Addr == "" {
		cfg.Monitor.Addr = DefaultMonitorAddr
	}
}

// applyEnvOverrides reads DISCORDBRIDGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISCORDBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DISCORDBRIDGE_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Host.TickInterval = d
		}
	}
	if v := os.Getenv("DISCORDBRIDGE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("DISCORDBRIDGE_MONITOR_ADDR"); v != "" {
		cfg.Monitor.Addr = v
		cfg.Monitor.Enabled = true
	}
	if v := os.Getenv("DISCORDBRIDGE_MONITOR_TOKEN"); v != "" {
		cfg.Monitor.Token = v
	}
}
