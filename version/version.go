package version

import "time"

// ServiceName identifies the HTTP API.
const ServiceName = "csvdiff API"

var Version = "0.1.0"
var BuildDate = "2026-10-17"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String renders the version line printed by the CLI.
func String() string {
	return "csvdiff v" + GetVersion() + " (built " + GetBuildDate() + ")"
}

// Info is the payload served by the version endpoint.
func Info(now time.Time) map[string]string {
	return map[string]string{
		"service": ServiceName,
		"version": GetVersion(),
		"build":   GetBuildDate(),
		"time":    now.UTC().Format(time.RFC3339),
	}
}
