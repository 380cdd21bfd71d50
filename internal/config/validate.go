package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
)

// Severity grades a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var metricsBackends = []string{"", "none", "datadog", "dd", "pushgateway"}

// Validate checks c and returns every problem found. Errors prevent a run;
// warnings are logged.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if c.SourcePath == "" {
		add(SeverityError, KeySourceData, "source directory is required")
	} else if fi, err := os.Stat(c.SourcePath); err != nil {
		add(SeverityError, KeySourceData, "source directory %s: %v", c.SourcePath, err)
	} else if !fi.IsDir() {
		add(SeverityError, KeySourceData, "%s is not a directory", c.SourcePath)
	}

	if c.LogHome == "" {
		add(SeverityWarning, KeyLogHome, "no log home set; file logging disabled")
	}

	if c.BatchSize <= 0 {
		add(SeverityError, KeyBatchSize, "must be positive, got %d", c.BatchSize)
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		add(SeverityError, KeyBaseURL, "invalid URL %q", c.BaseURL)
	}

	if !c.DryRun {
		if c.Engine.Host == "" {
			add(SeverityError, KeyESHost, "engine host is required")
		}
		if c.Engine.Port <= 0 || c.Engine.Port > 65535 {
			add(SeverityError, KeyESPort, "port out of range: %d", c.Engine.Port)
		}
		if c.Engine.Scheme != "http" && c.Engine.Scheme != "https" {
			add(SeverityError, KeyESScheme, "scheme must be http or https, got %q", c.Engine.Scheme)
		}
	}
	if c.Engine.Index == "" {
		add(SeverityError, KeyESIndex, "index name is required")
	}
	if c.Engine.Replicas < 0 {
		add(SeverityWarning, KeyESReplicas, "negative replica count %d", c.Engine.Replicas)
	}

	if c.Mirror.Kind != "" {
		if c.Mirror.DSN == "" {
			add(SeverityError, KeyMirrorDSN, "mirror kind %q needs a DSN", c.Mirror.Kind)
		}
		if c.Mirror.Table == "" {
			add(SeverityError, KeyMirrorTable, "mirror table is required")
		}
	} else if c.Mirror.DSN != "" {
		add(SeverityWarning, KeyMirrorDSN, "DSN set without mirror kind; mirror disabled")
	}

	if !slices.Contains(metricsBackends, c.Metrics.Backend) {
		add(SeverityError, KeyMetricsBackend, "unknown backend %q (none|datadog|pushgateway)", c.Metrics.Backend)
	}
	if c.Metrics.Backend == "pushgateway" && c.Metrics.PushgatewayURL == "" {
		add(SeverityError, KeyPushgatewayURL, "pushgateway backend needs a URL")
	}

	return issues
}
