package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostercal/internal/model"
)

func rows(cols []string, data ...[]string) []model.RawRow {
	out := make([]model.RawRow, len(data))
	for i, d := range data {
		out[i] = model.NewRawRow(cols, d)
	}
	return out
}

func TestRowsStandardLayout(t *testing.T) {
	recs, m := Rows(rows(
		[]string{"Event", "Time", "Location", "Name"},
		[]string{"PT Test", "0700-0800", "Gym", "Jane Doe"},
		[]string{"Briefing", "1300–1400", "Room 4", ""},
	))
	require.Len(t, recs, 2)
	assert.Equal(t, "Time", m.StartTime)

	pt := recs[0]
	assert.Equal(t, "PT Test", pt.Title)
	assert.Equal(t, "0700", pt.StartTime)
	assert.Equal(t, "0800", pt.EndTime)
	assert.Equal(t, "Gym", pt.Location)
	assert.Equal(t, "Jane Doe", pt.Name)
	assert.Equal(t, "task", pt.Type)
	assert.Empty(t, pt.Notes)

	brief := recs[1]
	assert.Equal(t, "1300", brief.StartTime, "en-dash splits too")
	assert.Equal(t, "1400", brief.EndTime)
	assert.Empty(t, brief.Name)
}

func TestRowsEmpty(t *testing.T) {
	recs, m := Rows(nil)
	assert.Empty(t, recs)
	assert.True(t, m.IsEmpty())
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to string
		ok       bool
	}{
		{"0700-0800", "0700", "0800", true},
		{"07:00 – 08:00", "07:00", "08:00", true},
		{"0700-", "0700", "", true},
		{"0700", "", "", false},
		{"0700-0800-0900", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		from, to, ok := splitRange(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.from, from, tt.in)
		assert.Equal(t, tt.to, to, tt.in)
	}
}

func TestRowUnsplittableTimeStaysStart(t *testing.T) {
	m := model.ColumnMapping{Title: "Event", StartTime: "Time", EndTime: "Ends"}
	r := model.NewRawRow([]string{"Event", "Time", "Ends"}, []string{"Range", "0700-0800-0900", "1000"})

	rec := Row(r, m)
	assert.Equal(t, "0700-0800-0900", rec.StartTime)
	assert.Equal(t, "1000", rec.EndTime, "falls back to the mapped end column")
}

func TestRowTypeLowercasedWithDefault(t *testing.T) {
	m := model.ColumnMapping{Title: "T", Type: "Kind"}
	cols := []string{"T", "Kind"}

	assert.Equal(t, "medical", Row(model.NewRawRow(cols, []string{"x", " Medical "}), m).Type)
	assert.Equal(t, "task", Row(model.NewRawRow(cols, []string{"x", ""}), m).Type)
	assert.Equal(t, "task", Row(model.NewRawRow(cols, []string{"x"}), model.ColumnMapping{Title: "T"}).Type)
}

func TestRowNotesAndCatchAll(t *testing.T) {
	m := model.ColumnMapping{Name: "Name", Title: "Task", Notes: []string{"due_date", "pay-grade", "Blank"}}
	r := model.NewRawRow(
		[]string{"Name", "Task", "due_date", "pay-grade", "Blank", "extra_col", "Coordination Status"},
		[]string{"Jane", "Inventory", "2025-04-01", "E-5", "  ", "surprise", "Pending"},
	)

	rec := Row(r, m)
	assert.Equal(t, "Due Date: 2025-04-01 | Pay Grade: E-5 | Extra Col: surprise", rec.Notes)
	assert.Equal(t, map[string]string{"Coordination Status": "Pending"}, rec.Passthrough)
}

func TestRowNotesOmittedWhenEmpty(t *testing.T) {
	m := model.ColumnMapping{Title: "Task", Notes: []string{"Remarks"}}
	rec := Row(model.NewRawRow([]string{"Task", "Remarks"}, []string{"Inventory", ""}), m)
	assert.Empty(t, rec.Notes)
}

func TestRowTitleSynthesis(t *testing.T) {
	t.Run("from first notes key", func(t *testing.T) {
		m := model.ColumnMapping{Title: "Task", Notes: []string{"unit_name", "Remarks"}}
		r := model.NewRawRow([]string{"Task", "unit_name", "Remarks"}, []string{"", "OSS", "x"})
		assert.Equal(t, "Unit Name", Row(r, m).Title)
	})

	t.Run("general item when nothing else", func(t *testing.T) {
		m := model.ColumnMapping{Title: "Task"}
		r := model.NewRawRow([]string{"Task"}, []string{" "})
		assert.Equal(t, "General Item", Row(r, m).Title)
	})
}

func TestRowPassthroughNeverInNotes(t *testing.T) {
	recs, _ := Rows(rows(
		[]string{"Ratee Name", "Rank or Grade", "Evaluation Reason", "Assigned To"},
		[]string{"John Smith", "SSgt", "Annual", "MSgt Lee"},
	))
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, "John Smith", rec.Name)
	assert.Equal(t, "SSgt", rec.Title)
	assert.Empty(t, rec.Notes)
	assert.Equal(t, map[string]string{
		"Ratee Name":        "John Smith",
		"Rank or Grade":     "SSgt",
		"Evaluation Reason": "Annual",
		"Assigned To":       "MSgt Lee",
	}, rec.Passthrough)
}

func TestRowsEveryRecordHasTitleAndLowercaseType(t *testing.T) {
	batches := [][]model.RawRow{
		rows([]string{"A", "B"}, []string{"", ""}, []string{"x", "y"}),
		rows([]string{"Kind", "Stuff"}, []string{"LEAVE", ""}),
		rows([]string{"Event", "Type"}, []string{"", "MIXED Case"}),
	}
	for _, b := range batches {
		recs, _ := Rows(b)
		for _, rec := range recs {
			assert.NotEmpty(t, rec.Title)
			assert.NotEmpty(t, rec.Type)
			assert.Equal(t, rec.Type, lower(rec.Type))
		}
	}
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "Due Date", FormatKey("due_date"))
	assert.Equal(t, "Pay Grade", FormatKey("pay-grade"))
	assert.Equal(t, "EPB Status", FormatKey("EPB Status"))
	assert.Equal(t, "Überstunden Heute", FormatKey("überstunden_heute"))
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + 32
		}
	}
	return string(out)
}
