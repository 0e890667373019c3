// This file adds a lightweight linter/validator for Load values. It
// performs static checks over a resolved request and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates an issue that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates an issue surfaced to users without
	// necessarily blocking execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the request (e.g. "batch_size"); Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where one is expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Load request. It does not
// mutate the request; callers decide whether warnings are fatal.
func Validate(l Load) []Issue {
	var issues []Issue

	if strings.TrimSpace(l.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "table",
			Message:  "table must not be empty",
		})
	}
	if strings.TrimSpace(l.Endpoint) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "endpoint",
			Message:  "query endpoint URL must not be empty",
		})
	}
	if l.SkipHeadLines < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "skip_head_lines",
			Message:  "skip-head-lines must not be negative",
		})
	}
	if l.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch_size",
			Message:  "batch-size must be positive (or 0 for the default)",
		})
	}
	if l.BatchSize > 0 && l.BatchSize < 1000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "batch_size",
			Message:  fmt.Sprintf("batch-size %d is small; each batch is one HTTP round trip", l.BatchSize),
		})
	}
	if l.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "workers",
			Message:  "workers must not be negative",
		})
	}
	if strings.TrimSpace(l.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use the default label",
		})
	}

	return issues
}

// HasError reports whether issues contains at least one SeverityError.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
