package sheet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rostercal/internal/ics"
)

func TestReadCSV(t *testing.T) {
	in := "\xef\xbb\xbf\n,,\nEvent,Time,Location,Name\nPT Test,0700-0800,Gym,Jane Doe\n,,,\nBriefing,1300-1400\n"
	tbl, err := Read("roster.CSV", strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Event", "Time", "Location", "Name"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2, "blank lines are skipped")
	assert.Equal(t, "Jane Doe", tbl.Rows[0].Get("Name"))
	assert.Equal(t, "Briefing", tbl.Rows[1].Get("Event"))
	assert.Equal(t, "", tbl.Rows[1].Get("Name"), "short rows are blank-defaulted")
	assert.Equal(t, tbl.Columns, tbl.Rows[1].Columns())
}

func TestHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"Name", "Column 2", "Column 3", "Phone"},
		Headers([]string{" Name ", "", "Name", "Phone"}),
	)
	assert.Equal(t, []string{"A", "B", "Column 3"}, Headers([]string{"A", "B", ""}))
}

func TestReadCSVTrailingColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		cols []string
		want map[string]string
	}{
		{
			name: "blank header with data is kept",
			in:   "Name,Event,\nJane,PT,bring ID card\n",
			cols: []string{"Name", "Event", "Column 3"},
			want: map[string]string{"Column 3": "bring ID card"},
		},
		{
			name: "blank header without data is dropped",
			in:   "Name,Event,,\nJane,PT,,\n",
			cols: []string{"Name", "Event"},
		},
		{
			name: "cells past the header are kept",
			in:   "Name,Event\nJane,PT\nJohn,Brief,room 4\n",
			cols: []string{"Name", "Event", "Column 3"},
			want: map[string]string{"Column 3": "room 4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadCSV(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.cols, tbl.Columns)
			last := tbl.Rows[len(tbl.Rows)-1]
			for col, v := range tt.want {
				assert.Equal(t, v, last.Get(col))
			}
		})
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read("empty.csv", strings.NewReader("\n,,\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadUnsupported(t *testing.T) {
	_, err := Read("notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("notes.txt"))
	assert.True(t, Supported("Roster.XLSX"))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Ratee Name", "Rank or Grade", "Evaluation Reason"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"John Smith", "SSgt", "Annual"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Jane Doe", "TSgt", "Change of Reporting Official"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := Read("evals.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ratee Name", "Rank or Grade", "Evaluation Reason"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "John Smith", tbl.Rows[0].Get("Ratee Name"))
	assert.Equal(t, "TSgt", tbl.Rows[1].Get("Rank or Grade"))
}

func TestReadICS(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:pt-1",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250115T070000Z",
		"DTEND:20250115T080000Z",
		"SUMMARY:PT Test",
		"LOCATION:Gym",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n") + "\r\n"

	window := ics.Window(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 7, 30, time.UTC)
	tbl, err := Read("unit.ics", strings.NewReader(body), WithICSWindow(window))
	require.NoError(t, err)
	assert.Equal(t, ics.RowColumns, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "0700-0800", tbl.Rows[0].Get("Time"))
	assert.Equal(t, "2025-01-15", tbl.Rows[0].Get("Date"))
}

func TestReadXLSXNamedSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Ignored"}))
	_, err := f.NewSheet("Roster")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Roster", "A1", &[]any{"Event", "Name"}))
	require.NoError(t, f.SetSheetRow("Roster", "A2", &[]any{"PT Test", "Jane Doe"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := Read("roster.xlsx", buf, WithSheet("Roster"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Event", "Name"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Jane Doe", tbl.Rows[0].Get("Name"))
}
