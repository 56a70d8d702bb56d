package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridwatch/gridwatch/internal/config"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and effective configuration information.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		writeEnvInfo(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func writeEnvInfo(w io.Writer, cfg *config.Config, configFile string) {
	version := crucible.GetVersion()
	if configFile == "" {
		configFile = "(none, defaults and environment)"
	}
	scheduleFile := cfg.Schedule.File
	if scheduleFile == "" {
		scheduleFile = "(unset)"
	}

	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format+"\n", args...) }

	p("=== gridwatch environment ===")
	p("")
	p("Application:")
	p("  Version:    %s", versionInfo.Version)
	p("  Commit:     %s", versionInfo.Commit)
	p("  Built:      %s", versionInfo.BuildDate)
	p("  Gofulmen:   %s", version.Gofulmen)
	p("  Crucible:   %s", version.Crucible)
	p("")
	p("Runtime:")
	p("  Go:         %s", runtime.Version())
	p("  Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	p("  NumCPU:     %d", runtime.NumCPU())
	p("")
	p("Configuration:")
	p("  Config File:     %s", configFile)
	p("  Server:          %s:%d", cfg.Server.Host, cfg.Server.Port)
	p("  Log Level:       %s (%s)", cfg.Logging.Level, cfg.Logging.Profile)
	p("  Metrics:         enabled=%t port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port)
	p("  Schedule File:   %s", scheduleFile)
	p("")
	p("OpenF1:")
	p("  Base URL:        %s", cfg.OpenF1.BaseURL)
	p("  Cache TTL:       %s", cfg.OpenF1.CacheTTL)
	p("  Rate Window:     %d requests / %s (+%s buffer)",
		cfg.OpenF1.RateLimit.Requests, cfg.OpenF1.RateLimit.Window, cfg.OpenF1.RateLimit.Buffer)
	p("  Retries:         %d (backoff %s..%s)",
		cfg.OpenF1.Retry.MaxRetries, cfg.OpenF1.Retry.BaseBackoff, cfg.OpenF1.Retry.MaxBackoff)
	p("  Dedupe In-Flight: %t", cfg.OpenF1.DedupeInFlight)
}
