package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

func newTable(title string, header []string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(toRow(header))
	return t
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}

// FormatFinishers renders a classification as a table.
func (f *TableFormatter) FormatFinishers(title string, finishers []core.Finisher) (string, error) {
	if finishers == nil {
		return fmt.Sprintf("%s: %s", title, noResultsYet), nil
	}

	t := newTable(title, finisherHeader)
	for _, finisher := range finishers {
		t.AppendRow(toRow(finisherRow(finisher)))
	}
	return t.Render(), nil
}

// FormatRecords renders raw upstream records with one column per key.
func (f *TableFormatter) FormatRecords(endpoint string, records []openf1.Record) (string, error) {
	if len(records) == 0 {
		return fmt.Sprintf("%s: no records", endpoint), nil
	}

	columns := recordColumns(records)
	t := newTable(endpoint, columns)
	for _, record := range records {
		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = recordCell(record[column])
		}
		t.AppendRow(toRow(cells))
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d records", len(records))})
	return t.Render(), nil
}

// FormatWeekends renders every event of every weekend with its status.
func (f *TableFormatter) FormatWeekends(ref time.Time, weekends []schedule.Weekend) (string, error) {
	t := newTable("Schedule at "+ref.UTC().Format(time.RFC3339), weekendHeader)
	for i, weekend := range weekends {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, row := range weekendRows(ref, weekend) {
			t.AppendRow(toRow(row))
		}
	}
	return t.Render(), nil
}

// FormatStats renders client statistics as a two-column table.
func (f *TableFormatter) FormatStats(stats core.ClientStats) (string, error) {
	t := newTable("OpenF1 client", []string{"Metric", "Value"})
	for _, row := range statsRows(stats) {
		t.AppendRow(toRow(row))
	}
	return t.Render(), nil
}
