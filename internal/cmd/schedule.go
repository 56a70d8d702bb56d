package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridwatch/gridwatch/internal/core/schedule"
	errwrap "github.com/gridwatch/gridwatch/internal/errors"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show race weekends with session status and countdowns",
	Long: `Show the race calendar from schedule.file (YAML table or Ergast-style JSON)
with every session classified as upcoming, live or completed.

Examples:
  gridwatch schedule --file calendar/2024.yaml
  gridwatch schedule --upcoming --at 2024-03-02T15:30:00Z`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar <season> <round>",
	Short: "Print calendar entries for one race weekend as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runCalendar,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(calendarCmd)

	scheduleCmd.PersistentFlags().String("file", "", "Schedule file (overrides schedule.file)")
	scheduleCmd.Flags().String("at", "", "Reference time (RFC3339, default now)")
	scheduleCmd.Flags().Bool("upcoming", false, "Hide completed weekends")
	addOutputFlag(scheduleCmd)

	_ = viper.BindPFlag("schedule.file", scheduleCmd.PersistentFlags().Lookup("file"))
}

// scheduleFromConfig loads the calendar and fails when none is configured.
func scheduleFromConfig(cmd *cobra.Command) ([]schedule.Weekend, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	weekends, err := loadSchedule(cfg)
	if err != nil {
		return nil, err
	}
	if weekends == nil {
		return nil, errwrap.NewInvalidInputError("no schedule configured: pass --file or set schedule.file")
	}
	return weekends, nil
}

func referenceTime(cmd *cobra.Command) (time.Time, error) {
	at, _ := cmd.Flags().GetString("at")
	at = strings.TrimSpace(at)
	if at == "" {
		return time.Now().UTC(), nil
	}
	ref, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, errwrap.WrapInvalidInput(cmd.Context(), err, "--at must be an RFC3339 timestamp")
	}
	return ref.UTC(), nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(cmd)
	if err != nil {
		return err
	}
	ref, err := referenceTime(cmd)
	if err != nil {
		return err
	}
	weekends, err := scheduleFromConfig(cmd)
	if err != nil {
		return err
	}
	if upcoming, _ := cmd.Flags().GetBool("upcoming"); upcoming {
		weekends = schedule.Current(weekends, ref)
	}

	rendered, err := formatter.FormatWeekends(ref, weekends)
	if err != nil {
		return err
	}
	printRendered(cmd, rendered)
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	season, err := strconv.Atoi(args[0])
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "season must be a number")
	}
	round, err := strconv.Atoi(args[1])
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "round must be a number")
	}

	weekends, err := scheduleFromConfig(cmd)
	if err != nil {
		return err
	}
	weekend, ok := schedule.Find(weekends, season, round)
	if !ok {
		return errwrap.NewNotFoundError(fmt.Sprintf("no weekend for season %d round %d", season, round))
	}

	data, err := json.MarshalIndent(schedule.CalendarEntries(weekend), "", "  ")
	if err != nil {
		return err
	}
	printRendered(cmd, string(data))
	return nil
}
