package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultTickInterval = 50 * time.Millisecond
	DefaultMonitorAddr  = "127.0.0.1:18790"
	DefaultEnvFile      = ".env"
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Host: HostConfig{
			TickInterval: DefaultTickInterval,
			EnvFile:      DefaultEnvFile,
		},
		Monitor: MonitorConfig{
			Addr: DefaultMonitorAddr,
		},
	}
}
