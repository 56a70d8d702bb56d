package openf1

import (
	"context"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Session is the typed view of a sessions record.
type Session struct {
	SessionKey       int       `mapstructure:"session_key" json:"session_key"`
	MeetingKey       int       `mapstructure:"meeting_key" json:"meeting_key"`
	SessionName      string    `mapstructure:"session_name" json:"session_name"`
	SessionType      string    `mapstructure:"session_type" json:"session_type"`
	DateStart        time.Time `mapstructure:"date_start" json:"date_start"`
	DateEnd          time.Time `mapstructure:"date_end" json:"date_end"`
	GMTOffset        string    `mapstructure:"gmt_offset" json:"gmt_offset"`
	Location         string    `mapstructure:"location" json:"location"`
	CountryName      string    `mapstructure:"country_name" json:"country_name"`
	CountryCode      string    `mapstructure:"country_code" json:"country_code"`
	CircuitShortName string    `mapstructure:"circuit_short_name" json:"circuit_short_name"`
	Year             int       `mapstructure:"year" json:"year"`
}

// Driver is the typed view of a drivers record.
type Driver struct {
	DriverNumber  int    `mapstructure:"driver_number" json:"driver_number"`
	FullName      string `mapstructure:"full_name" json:"full_name"`
	BroadcastName string `mapstructure:"broadcast_name" json:"broadcast_name"`
	NameAcronym   string `mapstructure:"name_acronym" json:"name_acronym"`
	TeamName      string `mapstructure:"team_name" json:"team_name"`
	TeamColour    string `mapstructure:"team_colour" json:"team_colour"`
	CountryCode   string `mapstructure:"country_code" json:"country_code"`
	SessionKey    int    `mapstructure:"session_key" json:"session_key"`
}

// SessionResult is the typed view of a session_result record. Position and
// Points are pointers because the upstream sends null for unclassified
// entries. GapToLeader may be a number, a string ("+1 LAP") or, for
// qualifying, an array of per-segment gaps.
type SessionResult struct {
	Position     *int     `mapstructure:"position" json:"position"`
	DriverNumber int      `mapstructure:"driver_number" json:"driver_number"`
	NumberOfLaps int      `mapstructure:"number_of_laps" json:"number_of_laps"`
	Points       *float64 `mapstructure:"points" json:"points"`
	DNF          bool     `mapstructure:"dnf" json:"dnf"`
	DNS          bool     `mapstructure:"dns" json:"dns"`
	DSQ          bool     `mapstructure:"dsq" json:"dsq"`
	Duration     any      `mapstructure:"duration" json:"duration"`
	GapToLeader  any      `mapstructure:"gap_to_leader" json:"gap_to_leader"`
	SessionKey   int      `mapstructure:"session_key" json:"session_key"`
}

// Decode converts raw records into typed values. Unknown fields are ignored.
func Decode[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, record := range records {
		var value T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &value,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeHookFunc(time.RFC3339),
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder: %w", err)
		}
		if err := decoder.Decode(map[string]any(record)); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// Sessions returns sessions for a year, optionally filtered by name.
func (c *Client) Sessions(ctx context.Context, year int, sessionName string) ([]Session, error) {
	params := Params{"year": year}
	if sessionName != "" {
		params["session_name"] = sessionName
	}
	records, err := c.Query(ctx, EndpointSessions, params)
	if err != nil {
		return nil, err
	}
	return Decode[Session](records)
}

// Drivers returns the driver entries for a session.
func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	records, err := c.Query(ctx, EndpointDrivers, Params{"session_key": sessionKey})
	if err != nil {
		return nil, err
	}
	return Decode[Driver](records)
}

// SessionResults returns the classification rows for a session.
func (c *Client) SessionResults(ctx context.Context, sessionKey int) ([]SessionResult, error) {
	records, err := c.Query(ctx, EndpointSessionResult, Params{"session_key": sessionKey})
	if err != nil {
		return nil, err
	}
	return Decode[SessionResult](records)
}
