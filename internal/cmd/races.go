package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	errwrap "github.com/gridwatch/gridwatch/internal/errors"
)

var podiumCmd = &cobra.Command{
	Use:   "podium",
	Short: "Show the top three finishers of a race",
	Long: `Show positions 1-3 of the race held on --date whose location or country
matches. Prints "No results yet" until the classification is published.

Example:
  gridwatch podium --date 2024-03-02 --location Sakhir`,
	Args: cobra.NoArgs,
	RunE: runPodium,
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the full classification of a race",
	Long: `Show every classified finisher of the race held on --date. Unlike podium,
lookup failures are reported as errors.

Examples:
  gridwatch results --date 2024-03-09 --country "Saudi Arabia"
  gridwatch results --date 2024-03-09 --location Jeddah --remaining`,
	Args: cobra.NoArgs,
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(podiumCmd)
	rootCmd.AddCommand(resultsCmd)

	for _, c := range []*cobra.Command{podiumCmd, resultsCmd} {
		c.Flags().String("date", "", "Race day (YYYY-MM-DD, UTC)")
		c.Flags().String("location", "", "Circuit location hint, e.g. Sakhir")
		c.Flags().String("country", "", "Country hint, e.g. Bahrain")
		c.Flags().String("season", "", "Season year (defaults to the year of --date)")
		addOutputFlag(c)
	}
	resultsCmd.Flags().Bool("remaining", false, "Only show positions 4 and below")
}

// raceLookupFromFlags validates the shared race flags.
func raceLookupFromFlags(cmd *cobra.Command) (openf1.RaceLookup, error) {
	dateValue, _ := cmd.Flags().GetString("date")
	location, _ := cmd.Flags().GetString("location")
	country, _ := cmd.Flags().GetString("country")
	season, _ := cmd.Flags().GetString("season")

	dateValue = strings.TrimSpace(dateValue)
	if dateValue == "" {
		return openf1.RaceLookup{}, errwrap.NewInvalidInputError("--date is required")
	}
	date, err := time.Parse(time.DateOnly, dateValue)
	if err != nil {
		return openf1.RaceLookup{}, errwrap.WrapInvalidInput(cmd.Context(), err, "--date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(location) == "" && strings.TrimSpace(country) == "" {
		return openf1.RaceLookup{}, errwrap.NewInvalidInputError("one of --location or --country is required")
	}
	if strings.TrimSpace(season) == "" {
		season = strconv.Itoa(date.Year())
	}

	return openf1.RaceLookup{
		Date:     date,
		Location: strings.TrimSpace(location),
		Country:  strings.TrimSpace(country),
		Season:   strings.TrimSpace(season),
	}, nil
}

func raceTitle(kind string, lookup openf1.RaceLookup) string {
	where := lookup.Location
	if where == "" {
		where = lookup.Country
	}
	return fmt.Sprintf("%s: %s %s", kind, where, lookup.Date.Format(time.DateOnly))
}

func runPodium(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(cmd)
	if err != nil {
		return err
	}
	lookup, err := raceLookupFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	finishers := newClient(cfg).TopFinishers(cmd.Context(), lookup)
	rendered, err := formatter.FormatFinishers(raceTitle("Podium", lookup), finishers)
	if err != nil {
		return err
	}
	printRendered(cmd, rendered)
	return nil
}

func runResults(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(cmd)
	if err != nil {
		return err
	}
	lookup, err := raceLookupFromFlags(cmd)
	if err != nil {
		return err
	}
	remaining, _ := cmd.Flags().GetBool("remaining")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	var (
		finishers []core.Finisher
		title     = raceTitle("Results", lookup)
	)
	if remaining {
		finishers = client.RemainingFinishers(cmd.Context(), lookup)
		title = raceTitle("Remaining", lookup)
	} else {
		finishers, err = client.RaceResults(cmd.Context(), lookup)
		if err != nil {
			return err
		}
	}

	rendered, err := formatter.FormatFinishers(title, finishers)
	if err != nil {
		return err
	}
	printRendered(cmd, rendered)
	return nil
}
