package openf1

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/metrics"
)

const (
	fallbackTeamName   = "Unknown"
	fallbackTeamColour = "000000"
	statusDNF          = "DNF"
	raceSessionName    = "Race"
)

// RaceLookup identifies a race by its calendar day and loose location hints.
type RaceLookup struct {
	Date     time.Time
	Location string
	Country  string
	Season   string
}

// TopFinishers returns positions 1-3 of the matching race, or nil when the
// race has no session or results yet. Errors are logged and swallowed.
func (c *Client) TopFinishers(ctx context.Context, lookup RaceLookup) []core.Finisher {
	return c.bestEffort(ctx, "podium", lookup, func(position int) bool {
		return position >= 1 && position <= 3
	})
}

// RemainingFinishers returns positions 4 and below with the same
// best-effort semantics as TopFinishers.
func (c *Client) RemainingFinishers(ctx context.Context, lookup RaceLookup) []core.Finisher {
	return c.bestEffort(ctx, "remaining", lookup, func(position int) bool {
		return position >= 4
	})
}

// RaceResults returns the full classification. Unlike TopFinishers it
// surfaces every failure, including ErrSessionNotFound.
func (c *Client) RaceResults(ctx context.Context, lookup RaceLookup) ([]core.Finisher, error) {
	session, err := c.findRaceSession(ctx, lookup)
	if err != nil {
		metrics.RecordLookup("results", "error")
		return nil, err
	}
	if session == nil {
		metrics.RecordLookup("results", "empty")
		return nil, fmt.Errorf("%w: %s %s on %s", ErrSessionNotFound, lookup.Location, lookup.Country, lookup.Date.UTC().Format(time.DateOnly))
	}

	finishers, err := c.classification(ctx, session.SessionKey, func(int) bool { return true })
	if err != nil {
		metrics.RecordLookup("results", "error")
		return nil, err
	}
	if finishers == nil {
		finishers = []core.Finisher{}
	}
	metrics.RecordLookup("results", "found")
	return finishers, nil
}

func (c *Client) bestEffort(ctx context.Context, kind string, lookup RaceLookup, keep func(int) bool) []core.Finisher {
	session, err := c.findRaceSession(ctx, lookup)
	if err == nil && session != nil {
		var finishers []core.Finisher
		finishers, err = c.classification(ctx, session.SessionKey, keep)
		if err == nil {
			if len(finishers) == 0 {
				metrics.RecordLookup(kind, "empty")
				return nil
			}
			metrics.RecordLookup(kind, "found")
			return finishers
		}
	}
	if err != nil {
		c.logger.Warn("Race finisher lookup failed",
			zap.String("kind", kind),
			zap.String("season", lookup.Season),
			zap.String("location", lookup.Location),
			zap.String("country", lookup.Country),
			zap.Error(err))
		metrics.RecordLookup(kind, "error")
		return nil
	}
	metrics.RecordLookup(kind, "empty")
	return nil
}

// findRaceSession returns the race session held on lookup.Date (UTC day)
// whose location or country loosely matches, or nil. The location hint is
// also tried against the circuit short name.
func (c *Client) findRaceSession(ctx context.Context, lookup RaceLookup) (*Session, error) {
	year, err := ParseSeason(lookup.Season)
	if err != nil {
		return nil, err
	}

	sessions, err := c.Sessions(ctx, year, raceSessionName)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		session := sessions[i]
		if !sameUTCDay(session.DateStart, lookup.Date) {
			continue
		}
		if looseMatch(lookup.Location, session.Location) ||
			looseMatch(lookup.Location, session.CircuitShortName) ||
			looseMatch(lookup.Country, session.CountryName) {
			return &session, nil
		}
	}
	return nil, nil
}

// classification fetches results, keeps positive positions accepted by
// keep, sorts them and joins driver identities.
func (c *Client) classification(ctx context.Context, sessionKey int, keep func(int) bool) ([]core.Finisher, error) {
	results, err := c.SessionResults(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	classified := make([]SessionResult, 0, len(results))
	for _, result := range results {
		if result.Position == nil || *result.Position <= 0 {
			continue
		}
		if !keep(*result.Position) {
			continue
		}
		classified = append(classified, result)
	}
	if len(classified) == 0 {
		return nil, nil
	}
	sort.SliceStable(classified, func(i, j int) bool {
		return *classified[i].Position < *classified[j].Position
	})

	drivers, err := c.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]Driver, len(drivers))
	for _, driver := range drivers {
		byNumber[driver.DriverNumber] = driver
	}

	finishers := make([]core.Finisher, 0, len(classified))
	for _, result := range classified {
		finishers = append(finishers, formatFinisher(result, byNumber))
	}
	return finishers, nil
}

func formatFinisher(result SessionResult, drivers map[int]Driver) core.Finisher {
	finisher := core.Finisher{
		Position:     *result.Position,
		DriverNumber: result.DriverNumber,
		DriverName:   fmt.Sprintf("Driver #%d", result.DriverNumber),
		TeamName:     fallbackTeamName,
		TeamColour:   fallbackTeamColour,
		TimeOrStatus: timeOrStatus(result),
	}
	if result.Points != nil {
		finisher.Points = *result.Points
	}

	if driver, ok := drivers[result.DriverNumber]; ok {
		if name := strings.TrimSpace(driver.FullName); name != "" {
			finisher.DriverName = name
		}
		if team := strings.TrimSpace(driver.TeamName); team != "" {
			finisher.TeamName = team
		}
		if colour := strings.TrimPrefix(strings.TrimSpace(driver.TeamColour), "#"); colour != "" {
			finisher.TeamColour = colour
		}
	}
	return finisher
}

func timeOrStatus(result SessionResult) *string {
	if gap, ok := FormatGap(result.GapToLeader); ok {
		return &gap
	}
	if result.DNF || result.DNS || result.DSQ {
		status := statusDNF
		return &status
	}
	return nil
}

// FormatGap renders a gap-to-leader value. Numeric gaps of a minute or more
// become +M:SS.sss; shorter gaps keep the upstream precision (+SS.sssss).
// Zero, null and empty values report false.
func FormatGap(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case float64:
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		if v >= 60 {
			ms := int64(math.Round(v * 1000))
			return fmt.Sprintf("+%d:%06.3f", ms/60000, float64(ms%60000)/1000), true
		}
		return "+" + strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return FormatGap(float64(v))
	case int64:
		return FormatGap(float64(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", false
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return FormatGap(parsed)
		}
		if !strings.HasPrefix(trimmed, "+") {
			trimmed = "+" + trimmed
		}
		return trimmed, true
	case []any:
		for i := len(v) - 1; i >= 0; i-- {
			if gap, ok := FormatGap(v[i]); ok {
				return gap, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// ParseSeason converts a season string into a year.
func ParseSeason(season string) (int, error) {
	trimmed := strings.TrimSpace(season)
	year, err := strconv.Atoi(trimmed)
	if err != nil || year <= 0 {
		return 0, &MalformedInputError{Field: "season", Value: season}
	}
	return year, nil
}

func sameUTCDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// looseMatch is true when hint and candidate are equal ignoring case or
// either contains the other.
func looseMatch(hint, candidate string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if h == "" || c == "" {
		return false
	}
	return h == c || strings.Contains(c, h) || strings.Contains(h, c)
}
