package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridwatch/gridwatch/internal/core"
)

var raceStart = time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

func TestDurations(t *testing.T) {
	require.Equal(t, time.Hour, Duration(core.EventKindFP1))
	require.Equal(t, time.Hour, Duration(core.EventKindFP2))
	require.Equal(t, time.Hour, Duration(core.EventKindFP3))
	require.Equal(t, time.Hour, Duration(core.EventKindQualifying))
	require.Equal(t, time.Hour, Duration(core.EventKindSprint))
	require.Equal(t, 44*time.Minute, Duration(core.EventKindSprintQualifying))
	require.Equal(t, 2*time.Hour, Duration(core.EventKindRace))
}

func TestLiveWindowBoundaries(t *testing.T) {
	event := core.RaceWeekendEvent{Kind: core.EventKindRace, Start: raceStart}

	before := raceStart.Add(-time.Millisecond)
	require.False(t, IsCurrentlyLive(raceStart, core.EventKindRace, before))
	require.False(t, HasHappened(raceStart, before))
	require.Equal(t, core.EventStatusUpcoming, Classify(event, before))

	require.True(t, IsCurrentlyLive(raceStart, core.EventKindRace, raceStart))
	require.False(t, HasHappened(raceStart, raceStart))
	require.Equal(t, core.EventStatusLive, Classify(event, raceStart))

	end := raceStart.Add(2 * time.Hour)
	require.True(t, IsCurrentlyLive(raceStart, core.EventKindRace, end))
	require.Equal(t, core.EventStatusLive, Classify(event, end), "live wins over completed at the end instant")

	after := end.Add(time.Millisecond)
	require.False(t, IsCurrentlyLive(raceStart, core.EventKindRace, after))
	require.True(t, HasHappened(raceStart, after))
	require.Equal(t, core.EventStatusCompleted, Classify(event, after))
}

func TestSprintQualifyingWindow(t *testing.T) {
	start := time.Date(2024, 4, 19, 7, 30, 0, 0, time.UTC)
	event := core.RaceWeekendEvent{Kind: core.EventKindSprintQualifying, Start: start}

	require.Equal(t, core.EventStatusLive, Classify(event, start.Add(44*time.Minute)))
	require.Equal(t, core.EventStatusCompleted, Classify(event, start.Add(45*time.Minute)))
}

func TestIdenticalStartsClassifyIndependently(t *testing.T) {
	sprintQualifying := core.RaceWeekendEvent{Kind: core.EventKindSprintQualifying, Start: raceStart}
	race := core.RaceWeekendEvent{Kind: core.EventKindRace, Start: raceStart}

	ref := raceStart.Add(90 * time.Minute)
	require.Equal(t, core.EventStatusCompleted, Classify(sprintQualifying, ref))
	require.Equal(t, core.EventStatusLive, Classify(race, ref))
}

func TestWindowCountdowns(t *testing.T) {
	event := core.RaceWeekendEvent{Kind: core.EventKindQualifying, Start: raceStart}

	upcoming := Window(event, raceStart.Add(-3*time.Hour))
	require.Equal(t, core.EventStatusUpcoming, upcoming.Status)
	require.Equal(t, 3*time.Hour, upcoming.Until)
	require.Equal(t, "Qualifying", upcoming.Label)
	require.Equal(t, raceStart.Add(time.Hour), upcoming.End)

	live := Window(event, raceStart.Add(20*time.Minute))
	require.Equal(t, core.EventStatusLive, live.Status)
	require.Equal(t, 40*time.Minute, live.Remaining)
	require.Zero(t, live.Until)

	done := Window(event, raceStart.Add(90*time.Minute))
	require.Equal(t, core.EventStatusCompleted, done.Status)
	require.Equal(t, 30*time.Minute, done.Since)
}
