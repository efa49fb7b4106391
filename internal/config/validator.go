package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dreamware/solvernet/internal/cluster"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "balancer.history_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	b := c.Balancer
	if b.StatusTimeout <= 0 {
		add("balancer.status_timeout", b.StatusTimeout, "must be positive")
	}
	if b.SolveTimeout <= 0 {
		add("balancer.solve_timeout", b.SolveTimeout, "must be positive")
	}
	if b.BroadcastInterval <= 0 {
		add("balancer.broadcast_interval", b.BroadcastInterval, "must be positive")
	}
	if b.HistorySize < 1 {
		add("balancer.history_size", b.HistorySize, "must be at least 1")
	}

	seen := make(map[string]bool, len(c.Workers))
	for i, w := range c.Workers {
		field := fmt.Sprintf("workers[%d]", i)
		switch {
		case w.ID == "":
			add(field+".id", w.ID, "must not be empty")
		case seen[w.ID]:
			add(field+".id", w.ID, "duplicate worker id")
		}
		seen[w.ID] = true
		if w.Addr == "" {
			add(field+".addr", w.Addr, "must not be empty")
		}
		if w.Transport != cluster.TransportHTTP && w.Transport != cluster.TransportGRPC {
			add(field+".transport", w.Transport, "must be http or grpc")
		}
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	return errs
}
