package main

import (
	"github.com/gridwatch/gridwatch/internal/cmd"
	"github.com/gridwatch/gridwatch/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-03-01"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	// Execute exits with a foundry code on failure.
	cmd.Execute()
}
