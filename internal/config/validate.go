package config

import (
	"fmt"
	"net"
	"slices"
	"time"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// Host validation
	if cfg.Host.TickInterval < time.Millisecond {
		issues = append(issues, ValidationIssue{
			Path:    "host.tickInterval",
			Message: fmt.Sprintf("must be at least 1ms, got %s", cfg.Host.TickInterval),
		})
	}

	// Monitor validation (only if enabled)
	if cfg.Monitor.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Monitor.Addr); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "monitor.addr",
				Message: fmt.Sprintf("must be host:port, got %q", cfg.Monitor.Addr),
			})
		}
	}

	// Flow validation
	names := map[string]bool{}
	for i, f := range cfg.Flows {
		prefix := fmt.Sprintf("flows[%d]", i)
		if f.Name == "" {
			issues = append(issues, ValidationIssue{Path: prefix + ".name", Message: "name is required"})
		} else if names[f.Name] {
			issues = append(issues, ValidationIssue{Path: prefix + ".name", Message: fmt.Sprintf("duplicate flow name %q", f.Name)})
		}
		names[f.Name] = true

		if f.Trigger.Type == "" {
			issues = append(issues, ValidationIssue{Path: prefix + ".trigger.type", Message: "trigger type is required"})
		}
		for j, a := range f.Actions {
			if a.Type == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s.actions[%d].type", prefix, j),
					Message: "action type is required",
				})
			}
		}
	}

	return issues
}
