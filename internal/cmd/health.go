package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	errwrap "github.com/gridwatch/gridwatch/internal/errors"
	"github.com/gridwatch/gridwatch/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check: version metadata, configuration, the schedule
file and, with --upstream, one live OpenF1 request.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().Bool("upstream", false, "also issue one request to the OpenF1 API")
	healthCmd.Flags().Duration("timeout", 15*time.Second, "upper bound for the upstream probe")
}

// selfCheck is one named step of the health command.
type selfCheck struct {
	name string
	run  func(ctx context.Context, cfg *config.Config) error
}

func selfChecks(probeUpstream bool) []selfCheck {
	checks := []selfCheck{
		{name: "version", run: func(context.Context, *config.Config) error {
			if strings.TrimSpace(versionInfo.Version) == "" {
				return errwrap.NewConfigInvalidError("version information missing")
			}
			return nil
		}},
		{name: "schedule", run: func(_ context.Context, cfg *config.Config) error {
			_, err := loadSchedule(cfg)
			return err
		}},
	}
	if probeUpstream {
		checks = append(checks, selfCheck{name: "upstream", run: func(ctx context.Context, cfg *config.Config) error {
			_, err := newClient(cfg).Query(ctx, "sessions", openf1.Params{"session_key": "latest"})
			return err
		}})
	}
	return checks
}

func runHealth(cmd *cobra.Command, _ []string) error {
	logger := observability.CLILogger
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	probeUpstream, _ := cmd.Flags().GetBool("upstream")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	failed := 0
	for _, check := range selfChecks(probeUpstream) {
		if err := check.run(ctx, cfg); err != nil {
			failed++
			logger.Debug("Health check failed", zap.String("check", check.name), zap.Error(err))
			_, _ = fmt.Fprintf(out, "FAIL  %s: %v\n", check.name, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "ok    %s\n", check.name)
	}

	if failed > 0 {
		return errwrap.NewServiceUnavailableError(fmt.Sprintf("%d health check(s) failed", failed))
	}
	_, _ = fmt.Fprintln(out, "All health checks passed")
	return nil
}
