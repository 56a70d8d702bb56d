package output

import (
	"encoding/json"
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// WeekendView is the JSON shape of a weekend classified at a reference
// time. The HTTP API returns the same shape.
type WeekendView struct {
	schedule.Weekend
	Status  core.EventStatus       `json:"status"`
	Windows []schedule.EventWindow `json:"windows"`
}

// NewWeekendViews classifies weekends at ref.
func NewWeekendViews(ref time.Time, weekends []schedule.Weekend) []WeekendView {
	views := make([]WeekendView, 0, len(weekends))
	for _, weekend := range weekends {
		views = append(views, WeekendView{
			Weekend: weekend,
			Status:  weekend.Status(ref),
			Windows: weekend.Windows(ref),
		})
	}
	return views
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// FormatFinishers renders finishers as a JSON array, or null when there are
// no results yet.
func (f *JSONFormatter) FormatFinishers(_ string, finishers []core.Finisher) (string, error) {
	return f.marshal(finishers)
}

// FormatRecords renders the records unchanged.
func (f *JSONFormatter) FormatRecords(_ string, records []openf1.Record) (string, error) {
	if records == nil {
		records = []openf1.Record{}
	}
	return f.marshal(records)
}

// FormatWeekends renders weekend views.
func (f *JSONFormatter) FormatWeekends(ref time.Time, weekends []schedule.Weekend) (string, error) {
	return f.marshal(NewWeekendViews(ref, weekends))
}

// FormatStats renders client statistics.
func (f *JSONFormatter) FormatStats(stats core.ClientStats) (string, error) {
	return f.marshal(stats)
}
