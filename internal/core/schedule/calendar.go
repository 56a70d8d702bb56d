package schedule

import (
	"fmt"
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
)

// CalendarEntry is the payload behind an add-to-calendar button.
type CalendarEntry struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// CalendarEntryFor builds the entry for one event of weekend. The end is
// start plus the kind's duration.
func CalendarEntryFor(weekend Weekend, event core.RaceWeekendEvent) CalendarEntry {
	label := event.Kind.Label()
	return CalendarEntry{
		Title:       fmt.Sprintf("%s – %s", weekend.Name, label),
		Description: fmt.Sprintf("%d Round %d: %s %s", weekend.Season, weekend.Round, weekend.Name, label),
		Location:    weekend.Location(),
		Start:       event.Start.UTC(),
		End:         event.Start.Add(Duration(event.Kind)).UTC(),
	}
}

// CalendarEntries returns one entry per event in start order.
func CalendarEntries(weekend Weekend) []CalendarEntry {
	events := weekend.sortedEvents()
	entries := make([]CalendarEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, CalendarEntryFor(weekend, event))
	}
	return entries
}
