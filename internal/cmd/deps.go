package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
	"github.com/gridwatch/gridwatch/internal/observability"
	"github.com/gridwatch/gridwatch/internal/output"
)

// newClient builds the upstream client from configuration.
func newClient(cfg *config.Config) *openf1.Client {
	opts := cfg.OpenF1.ClientOptions()
	opts.Logger = observability.Logger()
	return openf1.NewClient(opts)
}

// loadSchedule reads the configured calendar. An unset schedule.file yields
// nil without error.
func loadSchedule(cfg *config.Config) ([]schedule.Weekend, error) {
	path := strings.TrimSpace(cfg.Schedule.File)
	if path == "" {
		return nil, nil
	}
	weekends, err := schedule.LoadFile(path)
	if err != nil {
		return nil, err
	}
	observability.Logger().Debug("Loaded schedule",
		zap.String("file", path),
		zap.Int("weekends", len(weekends)))
	return weekends, nil
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table, json, markdown")
}

func formatterFor(cmd *cobra.Command) (output.Formatter, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(value)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}

func printRendered(cmd *cobra.Command, rendered string) {
	out := cmd.OutOrStdout()
	if strings.HasSuffix(rendered, "\n") {
		_, _ = fmt.Fprint(out, rendered)
		return
	}
	_, _ = fmt.Fprintln(out, rendered)
}
