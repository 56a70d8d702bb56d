package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
)

// Circuit describes where a weekend is held.
type Circuit struct {
	ID       string `json:"id,omitempty" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Locality string `json:"locality,omitempty" yaml:"locality"`
	Country  string `json:"country,omitempty" yaml:"country"`
}

// Weekend is one round of a season with its scheduled sessions.
type Weekend struct {
	Season  int                     `json:"season"`
	Round   int                     `json:"round"`
	Name    string                  `json:"name"`
	Circuit Circuit                 `json:"circuit"`
	Events  []core.RaceWeekendEvent `json:"events"`
}

// Race returns the race event of the weekend, if scheduled.
func (w Weekend) Race() (core.RaceWeekendEvent, bool) {
	for _, event := range w.Events {
		if event.Kind == core.EventKindRace {
			return event, true
		}
	}
	return core.RaceWeekendEvent{}, false
}

// Windows classifies every event at ref in start order. Each event is
// classified on its own; events sharing a start do not affect each other.
func (w Weekend) Windows(ref time.Time) []EventWindow {
	events := w.sortedEvents()
	windows := make([]EventWindow, 0, len(events))
	for _, event := range events {
		windows = append(windows, Window(event, ref))
	}
	return windows
}

// Next returns the first event that is live or upcoming at ref.
func (w Weekend) Next(ref time.Time) (EventWindow, bool) {
	for _, window := range w.Windows(ref) {
		if window.Status != core.EventStatusCompleted {
			return window, true
		}
	}
	return EventWindow{}, false
}

// Status summarises the weekend: live if any event is live, completed when
// every event is, upcoming otherwise.
func (w Weekend) Status(ref time.Time) core.EventStatus {
	if len(w.Events) == 0 {
		return core.EventStatusUpcoming
	}

	completed := 0
	for _, event := range w.Events {
		switch Classify(event, ref) {
		case core.EventStatusLive:
			return core.EventStatusLive
		case core.EventStatusCompleted:
			completed++
		}
	}
	if completed == len(w.Events) {
		return core.EventStatusCompleted
	}
	return core.EventStatusUpcoming
}

// Location renders "<circuit>, <locality>, <country>" skipping blanks.
func (w Weekend) Location() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{w.Circuit.Name, w.Circuit.Locality, w.Circuit.Country} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

func (w Weekend) sortedEvents() []core.RaceWeekendEvent {
	events := append([]core.RaceWeekendEvent(nil), w.Events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// Find returns the weekend for season and round.
func Find(weekends []Weekend, season, round int) (Weekend, bool) {
	for _, weekend := range weekends {
		if weekend.Season == season && weekend.Round == round {
			return weekend, true
		}
	}
	return Weekend{}, false
}

// Current returns the weekends that are not yet completed at ref, in
// calendar order.
func Current(weekends []Weekend, ref time.Time) []Weekend {
	out := make([]Weekend, 0, len(weekends))
	for _, weekend := range weekends {
		if weekend.Status(ref) != core.EventStatusCompleted {
			out = append(out, weekend)
		}
	}
	return out
}
