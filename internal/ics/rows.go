package ics

import (
	"time"

	"rostercal/internal/model"
)

// RowColumns is the header an imported calendar is presented under. These
// are the standardized export headers, so the mapping detector claims them
// without heuristics.
var RowColumns = []string{"Event", "Date", "Time", "Location", "Description"}

// ToRows turns occurrences into spreadsheet rows. Timed occurrences get a
// "HHMM-HHMM" range; all-day ones leave Time blank.
func ToRows(occs []Occurrence) []model.RawRow {
	rows := make([]model.RawRow, 0, len(occs))
	for _, o := range occs {
		rows = append(rows, model.NewRawRow(RowColumns, []string{
			o.Summary,
			o.Start.Format("2006-01-02"),
			timeRange(o),
			o.Location,
			o.Description,
		}))
	}
	return rows
}

func timeRange(o Occurrence) string {
	if o.AllDay {
		return ""
	}
	from := o.Start.Format("1504")
	if !o.End.After(o.Start) {
		return from
	}
	return from + "-" + o.End.Format("1504")
}

// Import parses and expands a calendar payload into rows ready for upload.
func Import(src Source, body []byte, cfg ExpandConfig) ([]string, []model.RawRow, error) {
	events, err := ParseICS(src, body, cfg.DisplayLocation)
	if err != nil {
		return nil, nil, err
	}
	res, err := ExpandOccurrences(events, cfg)
	if err != nil {
		return nil, nil, err
	}
	cols := append([]string{}, RowColumns...)
	return cols, ToRows(res.Occurrences), nil
}

// DefaultWindow is used when a calendar is imported without configuration.
func DefaultWindow(loc *time.Location) ExpandConfig {
	return Window(time.Now(), 7, 30, loc)
}
