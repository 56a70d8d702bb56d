package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/observability"
)

var queryCmd = &cobra.Command{
	Use:   "query <endpoint>",
	Short: "Query an OpenF1 endpoint",
	Long: `Query an OpenF1 endpoint through the rate-limited, cached client.

Filters are passed as repeated --param key=value pairs. Values that look
numeric are sent as numbers.

Examples:
  gridwatch query sessions --param year=2024 --param session_name=Race
  gridwatch query drivers --param session_key=9472 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringArrayP("param", "p", nil, "Filter as key=value (repeatable)")
	queryCmd.Flags().Bool("stats", false, "Print client cache and rate window statistics afterwards")
	addOutputFlag(queryCmd)
}

// parseParams turns key=value pairs into client params. A later pair for
// the same key wins.
func parseParams(pairs []string) (openf1.Params, error) {
	params := make(openf1.Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &openf1.MalformedInputError{Field: "param", Value: pair}
		}
		params[key] = openf1.ParseParamValue(value)
	}
	return params, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	formatter, err := formatterFor(cmd)
	if err != nil {
		return err
	}
	pairs, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return err
	}
	params, err := parseParams(pairs)
	if err != nil {
		return err
	}
	showStats, _ := cmd.Flags().GetBool("stats")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	endpoint := args[0]
	records, err := client.Query(cmd.Context(), endpoint, params)
	if err != nil {
		return fmt.Errorf("query %s: %w", endpoint, err)
	}
	observability.Logger().Debug("Query complete",
		zap.String("endpoint", endpoint),
		zap.Int("records", len(records)))

	rendered, err := formatter.FormatRecords(endpoint, records)
	if err != nil {
		return err
	}
	printRendered(cmd, rendered)

	if showStats {
		rendered, err = formatter.FormatStats(client.Stats())
		if err != nil {
			return err
		}
		printRendered(cmd, rendered)
	}
	return nil
}
