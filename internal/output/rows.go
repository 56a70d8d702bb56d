package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
)

const noResultsYet = "No results yet"

var finisherHeader = []string{"Pos", "No", "Driver", "Team", "Points", "Time/Status"}

func finisherRow(f core.Finisher) []string {
	status := ""
	if f.TimeOrStatus != nil {
		status = *f.TimeOrStatus
	}
	return []string{
		strconv.Itoa(f.Position),
		strconv.Itoa(f.DriverNumber),
		f.DriverName,
		f.TeamName,
		strconv.FormatFloat(f.Points, 'f', -1, 64),
		status,
	}
}

// recordColumns returns the union of record keys. Identity keys lead, the
// rest follow alphabetically.
func recordColumns(records []openf1.Record) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			seen[key] = true
		}
	}

	leading := []string{"session_key", "meeting_key", "driver_number", "date", "date_start"}
	columns := make([]string, 0, len(seen))
	for _, key := range leading {
		if seen[key] {
			columns = append(columns, key)
			delete(seen, key)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func recordCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

var weekendHeader = []string{"Round", "Grand Prix", "Session", "Start (UTC)", "Status", "Countdown"}

func weekendRows(ref time.Time, weekend schedule.Weekend) [][]string {
	windows := weekend.Windows(ref)
	rows := make([][]string, 0, len(windows))
	for i, window := range windows {
		round, name := "", ""
		if i == 0 {
			round = fmt.Sprintf("%d/%d", weekend.Season, weekend.Round)
			name = weekend.Name
		}
		rows = append(rows, []string{
			round,
			name,
			window.Label,
			window.Start.UTC().Format("Mon 02 Jan 15:04"),
			string(window.Status),
			countdown(window),
		})
	}
	return rows
}

func countdown(window schedule.EventWindow) string {
	switch window.Status {
	case core.EventStatusUpcoming:
		return "in " + humanDuration(window.Until)
	case core.EventStatusLive:
		return humanDuration(window.Remaining) + " left"
	default:
		return humanDuration(window.Since) + " ago"
	}
}

// humanDuration renders d as "2d 3h", "4h 05m" or "12m".
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func statsRows(stats core.ClientStats) [][]string {
	last := "never"
	if stats.LastDispatchAt != nil {
		last = stats.LastDispatchAt.UTC().Format(time.RFC3339)
	}
	return [][]string{
		{"Cache entries", fmt.Sprintf("%d (%d fresh)", stats.CacheEntries, stats.FreshEntries)},
		{"Cache hits / misses", fmt.Sprintf("%d / %d", stats.CacheHits, stats.CacheMisses)},
		{"Pending", strconv.Itoa(stats.Pending)},
		{"Window", fmt.Sprintf("%d/%d", stats.WindowUsed, stats.WindowLimit)},
		{"Dispatched", strconv.FormatInt(stats.Dispatched, 10)},
		{"Last dispatch", last},
	}
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
