package core

import (
	"fmt"
	"strings"
	"time"
)

// EventKind identifies the category of a race-weekend session.
type EventKind string

const (
	EventKindFP1              EventKind = "fp1"
	EventKindFP2              EventKind = "fp2"
	EventKindFP3              EventKind = "fp3"
	EventKindQualifying       EventKind = "qualifying"
	EventKindSprintQualifying EventKind = "sprint_qualifying"
	EventKindSprint           EventKind = "sprint"
	EventKindRace             EventKind = "race"
)

// EventKinds lists every kind in running order within a weekend.
var EventKinds = []EventKind{
	EventKindFP1,
	EventKindFP2,
	EventKindFP3,
	EventKindSprintQualifying,
	EventKindSprint,
	EventKindQualifying,
	EventKindRace,
}

// Label returns the display name for the kind.
func (k EventKind) Label() string {
	switch k {
	case EventKindFP1:
		return "Practice 1"
	case EventKindFP2:
		return "Practice 2"
	case EventKindFP3:
		return "Practice 3"
	case EventKindQualifying:
		return "Qualifying"
	case EventKindSprintQualifying:
		return "Sprint Qualifying"
	case EventKindSprint:
		return "Sprint"
	case EventKindRace:
		return "Race"
	default:
		return string(k)
	}
}

// ParseEventKind accepts canonical kinds and the common aliases used by
// schedule tables ("FirstPractice", "Sprint Shootout", "FP1", ...).
func ParseEventKind(value string) (EventKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)

	switch normalized {
	case "fp1", "firstpractice", "practice1":
		return EventKindFP1, nil
	case "fp2", "secondpractice", "practice2":
		return EventKindFP2, nil
	case "fp3", "thirdpractice", "practice3":
		return EventKindFP3, nil
	case "qualifying", "quali":
		return EventKindQualifying, nil
	case "sprintqualifying", "sprintshootout":
		return EventKindSprintQualifying, nil
	case "sprint":
		return EventKindSprint, nil
	case "race", "grandprix":
		return EventKindRace, nil
	default:
		return "", fmt.Errorf("unknown event kind: %q", value)
	}
}

// EventStatus is the temporal state of an event relative to a reference time.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusLive      EventStatus = "live"
	EventStatusCompleted EventStatus = "completed"
)

// RaceWeekendEvent is a single scheduled session. It is immutable once
// built from schedule data.
type RaceWeekendEvent struct {
	Kind  EventKind `json:"kind"`
	Start time.Time `json:"start"`
}

// Finisher is a display-ready classification row.
type Finisher struct {
	Position     int     `json:"position"`
	DriverNumber int     `json:"driver_number"`
	DriverName   string  `json:"driver_name"`
	TeamName     string  `json:"team_name"`
	TeamColour   string  `json:"team_colour"`
	Points       float64 `json:"points"`
	TimeOrStatus *string `json:"time_or_status"`
}
