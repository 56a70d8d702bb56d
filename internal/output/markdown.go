package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

func writeMarkdownTable(sb *strings.Builder, header []string, rows [][]string) {
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat("------|", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeMarkdownCell(cell)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// FormatFinishers renders a classification as Markdown.
func (f *MarkdownFormatter) FormatFinishers(title string, finishers []core.Finisher) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(title)))
	if finishers == nil {
		sb.WriteString("_" + noResultsYet + "_\n")
		return sb.String(), nil
	}

	rows := make([][]string, 0, len(finishers))
	for _, finisher := range finishers {
		rows = append(rows, finisherRow(finisher))
	}
	writeMarkdownTable(&sb, finisherHeader, rows)
	return sb.String(), nil
}

// FormatRecords renders raw records as Markdown.
func (f *MarkdownFormatter) FormatRecords(endpoint string, records []openf1.Record) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(endpoint)))
	if len(records) == 0 {
		sb.WriteString("_No records_\n")
		return sb.String(), nil
	}

	columns := recordColumns(records)
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = recordCell(record[column])
		}
		rows = append(rows, cells)
	}
	writeMarkdownTable(&sb, columns, rows)
	sb.WriteString(fmt.Sprintf("\n**Records**: %d\n", len(records)))
	return sb.String(), nil
}

// FormatWeekends renders one section per weekend.
func (f *MarkdownFormatter) FormatWeekends(ref time.Time, weekends []schedule.Weekend) (string, error) {
	var sb strings.Builder
	for i, weekend := range weekends {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", escapeMarkdownCell(weekend.Name), weekend.Status(ref)))
		if location := weekend.Location(); location != "" {
			sb.WriteString(escapeMarkdownCell(location) + "\n\n")
		}
		writeMarkdownTable(&sb, weekendHeader[2:], trimColumns(weekendRows(ref, weekend), 2))
	}
	return sb.String(), nil
}

// FormatStats renders client statistics as Markdown.
func (f *MarkdownFormatter) FormatStats(stats core.ClientStats) (string, error) {
	var sb strings.Builder
	sb.WriteString("## OpenF1 client\n\n")
	writeMarkdownTable(&sb, []string{"Metric", "Value"}, statsRows(stats))
	return sb.String(), nil
}

func trimColumns(rows [][]string, skip int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[skip:])
	}
	return out
}
