package openf1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	sessions []map[string]any
	results  []map[string]any
	drivers  []map[string]any

	sessionCalls atomic.Int32
	resultCalls  atomic.Int32
	driverCalls  atomic.Int32
}

func (f *fakeUpstream) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.sessionCalls.Add(1)
		require.Equal(t, "Race", r.URL.Query().Get("session_name"))
		writeJSON(t, w, f.sessions)
	})
	mux.HandleFunc("/session_result", func(w http.ResponseWriter, r *http.Request) {
		f.resultCalls.Add(1)
		writeJSON(t, w, f.results)
	})
	mux.HandleFunc("/drivers", func(w http.ResponseWriter, r *http.Request) {
		f.driverCalls.Add(1)
		writeJSON(t, w, f.drivers)
	})
	return mux
}

func bahrainUpstream() *fakeUpstream {
	return &fakeUpstream{
		sessions: []map[string]any{
			{
				"session_key":  9468,
				"session_name": "Race",
				"date_start":   "2024-03-02T15:00:00+00:00",
				"location":     "Sakhir",
				"country_name": "Bahrain",
				"year":         2024,
			},
			{
				"session_key":  9480,
				"session_name": "Race",
				"date_start":   "2024-03-09T17:00:00+00:00",
				"location":     "Jeddah",
				"country_name": "Saudi Arabia",
				"year":         2024,
			},
		},
		results: []map[string]any{
			{"position": 3, "driver_number": 55, "points": 15, "gap_to_leader": 25.11},
			{"position": 1, "driver_number": 1, "points": 26, "gap_to_leader": 0},
			{"position": 2, "driver_number": 11, "points": 18, "gap_to_leader": 22.457},
			{"position": 5, "driver_number": 63, "points": 10, "gap_to_leader": 46.788},
			{"position": nil, "driver_number": 2, "dnf": true},
			{"position": -1, "driver_number": 77},
			{"position": 20, "driver_number": 24, "points": 0, "gap_to_leader": "+1 LAP"},
			{"position": 4, "driver_number": 16, "points": 12, "gap_to_leader": 39.669},
		},
		drivers: []map[string]any{
			{"driver_number": 1, "full_name": "Max VERSTAPPEN", "team_name": "Red Bull Racing", "team_colour": "3671C6"},
			{"driver_number": 11, "full_name": "Sergio PEREZ", "team_name": "Red Bull Racing", "team_colour": "#3671C6"},
			{"driver_number": 16, "full_name": "Charles LECLERC", "team_name": "Ferrari", "team_colour": "E8002D"},
			{"driver_number": 63, "full_name": "George RUSSELL", "team_name": "Mercedes", "team_colour": "27F4D2"},
		},
	}
}

func bahrainLookup() RaceLookup {
	return RaceLookup{
		Date:     time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Location: "Bahrain International Circuit",
		Country:  "Bahrain",
		Season:   "2024",
	}
}

func TestTopFinishersSortsAndFallsBack(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	podium := client.TopFinishers(context.Background(), bahrainLookup())
	require.Len(t, podium, 3)

	require.Equal(t, 1, podium[0].Position)
	require.Equal(t, "Max VERSTAPPEN", podium[0].DriverName)
	require.Equal(t, "3671C6", podium[0].TeamColour)
	require.Equal(t, float64(26), podium[0].Points)
	require.Nil(t, podium[0].TimeOrStatus, "the leader has no gap")

	require.Equal(t, 2, podium[1].Position)
	require.Equal(t, "3671C6", podium[1].TeamColour, "leading # is stripped")
	require.NotNil(t, podium[1].TimeOrStatus)
	require.Equal(t, "+22.457", *podium[1].TimeOrStatus)

	require.Equal(t, 3, podium[2].Position)
	require.Equal(t, 55, podium[2].DriverNumber)
	require.Equal(t, "Driver #55", podium[2].DriverName)
	require.Equal(t, "Unknown", podium[2].TeamName)
	require.Equal(t, "000000", podium[2].TeamColour)
}

func TestRemainingFinishersStartAtFourth(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	rest := client.RemainingFinishers(context.Background(), bahrainLookup())
	require.Len(t, rest, 3)
	require.Equal(t, []int{4, 5, 20}, []int{rest[0].Position, rest[1].Position, rest[2].Position})
	require.Equal(t, "Charles LECLERC", rest[0].DriverName)
	require.Equal(t, "+1 LAP", *rest[2].TimeOrStatus)
}

func TestFinisherLookupsShareCachedSessions(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	require.Len(t, client.TopFinishers(context.Background(), bahrainLookup()), 3)
	require.Len(t, client.RemainingFinishers(context.Background(), bahrainLookup()), 3)

	all, err := client.RaceResults(context.Background(), bahrainLookup())
	require.NoError(t, err)
	require.Len(t, all, 6)

	require.Equal(t, int32(1), upstream.sessionCalls.Load())
	require.Equal(t, int32(1), upstream.resultCalls.Load())
	require.Equal(t, int32(1), upstream.driverCalls.Load())
}

func TestTopFinishersMatchesByCountryWhenLocationDiffers(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	lookup := bahrainLookup()
	lookup.Location = "Somewhere Else"
	require.Len(t, client.TopFinishers(context.Background(), lookup), 3)

	lookup.Location = "sakhir"
	lookup.Country = ""
	require.Len(t, client.TopFinishers(context.Background(), lookup), 3)
}

func TestTopFinishersMatchesCircuitShortName(t *testing.T) {
	upstream := bahrainUpstream()
	upstream.sessions[0]["location"] = "Zallaq"
	upstream.sessions[0]["circuit_short_name"] = "Sakhir"
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	lookup := bahrainLookup()
	lookup.Location = "sakhir"
	lookup.Country = ""
	podium := client.TopFinishers(context.Background(), lookup)
	require.Len(t, podium, 3)
	require.Equal(t, "Max VERSTAPPEN", podium[0].DriverName)
}

func TestTopFinishersNoMatchingSession(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	lookup := bahrainLookup()
	lookup.Date = time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	require.Nil(t, client.TopFinishers(context.Background(), lookup))
	require.Zero(t, upstream.resultCalls.Load())

	_, err := client.RaceResults(context.Background(), lookup)
	require.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestTopFinishersWithoutResultsYet(t *testing.T) {
	upstream := bahrainUpstream()
	upstream.results = nil
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	require.Nil(t, client.TopFinishers(context.Background(), bahrainLookup()))
	require.Zero(t, upstream.driverCalls.Load())

	all, err := client.RaceResults(context.Background(), bahrainLookup())
	require.NoError(t, err)
	require.NotNil(t, all)
	require.Empty(t, all)
}

func TestTopFinishersMalformedSeason(t *testing.T) {
	upstream := bahrainUpstream()
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	lookup := bahrainLookup()
	lookup.Season = "twenty24"
	require.Nil(t, client.TopFinishers(context.Background(), lookup))
	require.Zero(t, upstream.sessionCalls.Load())

	_, err := client.RaceResults(context.Background(), lookup)
	require.True(t, errors.Is(err, ErrMalformedInput))
}

func TestTopFinishersSwallowsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	require.Nil(t, client.TopFinishers(context.Background(), bahrainLookup()))

	_, err := client.RaceResults(context.Background(), bahrainLookup())
	var httpErr *UpstreamHTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestRaceResultsMarksRetirements(t *testing.T) {
	upstream := bahrainUpstream()
	upstream.results = append(upstream.results, map[string]any{"position": 19, "driver_number": 23, "dnf": true})
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	client := newTestClient(t, server, newFakeClock())

	all, err := client.RaceResults(context.Background(), bahrainLookup())
	require.NoError(t, err)

	var retired string
	for _, finisher := range all {
		if finisher.Position == 19 {
			require.NotNil(t, finisher.TimeOrStatus)
			retired = *finisher.TimeOrStatus
		}
	}
	require.Equal(t, "DNF", retired)
}

func TestFormatGap(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{name: "nil", value: nil},
		{name: "zero", value: float64(0)},
		{name: "negative", value: -1.2},
		{name: "seconds", value: 1.234, want: "+1.234", ok: true},
		{name: "upstream precision", value: 22.45711, want: "+22.45711", ok: true},
		{name: "minutes", value: 75.5, want: "+1:15.500", ok: true},
		{name: "exact minute", value: float64(60), want: "+1:00.000", ok: true},
		{name: "rounds into next minute", value: 119.9996, want: "+2:00.000", ok: true},
		{name: "rounds down", value: 60.0004, want: "+1:00.000", ok: true},
		{name: "int", value: 3, want: "+3", ok: true},
		{name: "numeric string", value: "12.5", want: "+12.5", ok: true},
		{name: "lapped", value: "+1 LAP", want: "+1 LAP", ok: true},
		{name: "unprefixed text", value: "2 LAPS", want: "+2 LAPS", ok: true},
		{name: "blank", value: "  "},
		{name: "qualifying segments", value: []any{0.5, 0.7, nil}, want: "+0.7", ok: true},
		{name: "empty segments", value: []any{nil, nil}},
		{name: "unsupported", value: map[string]any{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FormatGap(tc.value)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseSeason(t *testing.T) {
	year, err := ParseSeason(" 2024 ")
	require.NoError(t, err)
	require.Equal(t, 2024, year)

	for _, input := range []string{"", "abc", "-3", "0"} {
		_, err := ParseSeason(input)
		require.Error(t, err, input)
		var malformed *MalformedInputError
		require.True(t, errors.As(err, &malformed))
		require.Equal(t, "season", malformed.Field)
	}
}

func TestLooseMatch(t *testing.T) {
	require.True(t, looseMatch("Sakhir", "sakhir"))
	require.True(t, looseMatch("Bahrain International Circuit", "Bahrain"))
	require.True(t, looseMatch("Monaco", "Monte Carlo, Monaco"))
	require.False(t, looseMatch("", "Monaco"))
	require.False(t, looseMatch("Imola", "Monza"))
}
