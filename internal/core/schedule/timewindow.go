package schedule

import (
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
)

const (
	practiceDuration         = time.Hour
	qualifyingDuration       = time.Hour
	sprintDuration           = time.Hour
	sprintQualifyingDuration = 44 * time.Minute
	raceDuration             = 2 * time.Hour
)

// Duration returns how long an event of kind is considered live after its
// start. Unknown kinds are treated as one-hour sessions.
func Duration(kind core.EventKind) time.Duration {
	switch kind {
	case core.EventKindFP1, core.EventKindFP2, core.EventKindFP3:
		return practiceDuration
	case core.EventKindQualifying:
		return qualifyingDuration
	case core.EventKindSprintQualifying:
		return sprintQualifyingDuration
	case core.EventKindSprint:
		return sprintDuration
	case core.EventKindRace:
		return raceDuration
	default:
		return time.Hour
	}
}

// HasHappened reports whether start is strictly before ref.
func HasHappened(start, ref time.Time) bool {
	return start.Before(ref)
}

// IsCurrentlyLive reports whether ref lies in [start, start+Duration(kind)].
// Both ends are inclusive.
func IsCurrentlyLive(start time.Time, kind core.EventKind, ref time.Time) bool {
	end := start.Add(Duration(kind))
	return !ref.Before(start) && !ref.After(end)
}

// Classify derives the status of event at ref. Live takes precedence, so an
// event at exactly its start instant is live rather than upcoming.
func Classify(event core.RaceWeekendEvent, ref time.Time) core.EventStatus {
	switch {
	case IsCurrentlyLive(event.Start, event.Kind, ref):
		return core.EventStatusLive
	case HasHappened(event.Start, ref):
		return core.EventStatusCompleted
	default:
		return core.EventStatusUpcoming
	}
}

// EventWindow is the classified view of one event with the countdown values
// a badge needs.
type EventWindow struct {
	Kind   core.EventKind   `json:"kind"`
	Label  string           `json:"label"`
	Start  time.Time        `json:"start"`
	End    time.Time        `json:"end"`
	Status core.EventStatus `json:"status"`
	// Until is the time left before the start; zero once started.
	Until time.Duration `json:"until"`
	// Remaining is the time left while live; zero otherwise.
	Remaining time.Duration `json:"remaining"`
	// Since is the time elapsed after the end once completed.
	Since time.Duration `json:"since"`
}

// Window classifies event at ref.
func Window(event core.RaceWeekendEvent, ref time.Time) EventWindow {
	end := event.Start.Add(Duration(event.Kind))
	window := EventWindow{
		Kind:   event.Kind,
		Label:  event.Kind.Label(),
		Start:  event.Start,
		End:    end,
		Status: Classify(event, ref),
	}

	switch window.Status {
	case core.EventStatusUpcoming:
		window.Until = event.Start.Sub(ref)
	case core.EventStatusLive:
		window.Remaining = end.Sub(ref)
	case core.EventStatusCompleted:
		window.Since = ref.Sub(end)
	}
	return window
}
