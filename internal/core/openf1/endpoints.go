package openf1

import "strings"

// Resource names served by the upstream API.
const (
	EndpointSessions      = "sessions"
	EndpointMeetings      = "meetings"
	EndpointDrivers       = "drivers"
	EndpointLaps          = "laps"
	EndpointPosition      = "position"
	EndpointCarData       = "car_data"
	EndpointStints        = "stints"
	EndpointTeamRadio     = "team_radio"
	EndpointWeather       = "weather"
	EndpointIntervals     = "intervals"
	EndpointPit           = "pit"
	EndpointRaceControl   = "race_control"
	EndpointLocation      = "location"
	EndpointStartingGrid  = "starting_grid"
	EndpointSessionResult = "session_result"
	EndpointOvertakes     = "overtakes"
)

var knownEndpoints = map[string]struct{}{
	EndpointSessions:      {},
	EndpointMeetings:      {},
	EndpointDrivers:       {},
	EndpointLaps:          {},
	EndpointPosition:      {},
	EndpointCarData:       {},
	EndpointStints:        {},
	EndpointTeamRadio:     {},
	EndpointWeather:       {},
	EndpointIntervals:     {},
	EndpointPit:           {},
	EndpointRaceControl:   {},
	EndpointLocation:      {},
	EndpointStartingGrid:  {},
	EndpointSessionResult: {},
	EndpointOvertakes:     {},
}

// IsKnownEndpoint reports whether name is a resource the client will query.
func IsKnownEndpoint(name string) bool {
	_, ok := knownEndpoints[normalizeEndpoint(name)]
	return ok
}

func normalizeEndpoint(name string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(name)), "/")
}
