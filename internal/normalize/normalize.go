// Package normalize reshapes raw spreadsheet rows into canonical records
// using a detected column mapping. Unmapped data is kept: unclaimed columns
// end up in Notes and evaluation columns are copied through verbatim.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	appLog "rostercal/internal/log"
	"rostercal/internal/mapping"
	"rostercal/internal/model"
)

const notesSeparator = " | "

// Rows detects the mapping on the first row and normalizes the whole batch.
func Rows(rows []model.RawRow) ([]model.CanonicalRecord, model.ColumnMapping) {
	if len(rows) == 0 {
		return []model.CanonicalRecord{}, model.ColumnMapping{Notes: []string{}}
	}
	m := mapping.Detect(rows[0])
	if m.IsEmpty() {
		return []model.CanonicalRecord{}, m
	}

	out := make([]model.CanonicalRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row(r, m))
	}
	appLog.Debug("rows normalized", "rows", len(rows), "title_column", m.Title, "notes_columns", len(m.Notes))
	return out, m
}

// Row normalizes one row with an already detected mapping.
func Row(r model.RawRow, m model.ColumnMapping) model.CanonicalRecord {
	rec := model.CanonicalRecord{
		Name:     cell(r, m.Name),
		Date:     cell(r, m.Date),
		EndTime:  cell(r, m.EndTime),
		Location: cell(r, m.Location),
	}

	start := cell(r, m.StartTime)
	if from, to, ok := splitRange(start); ok {
		rec.StartTime, rec.EndTime = from, to
	} else {
		rec.StartTime = start
	}

	rec.Type = strings.ToLower(cell(r, m.Type))
	if rec.Type == "" {
		rec.Type = model.DefaultType
	}

	notes := buildNotes(r, m)
	if len(notes) > 0 {
		rec.Notes = strings.Join(notes, notesSeparator)
	}

	rec.Title = cell(r, m.Title)
	if rec.Title == "" {
		rec.Title = synthesizeTitle(notes)
	}

	for _, col := range model.PassthroughColumns {
		v := r.Get(col)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if rec.Passthrough == nil {
			rec.Passthrough = make(map[string]string)
		}
		rec.Passthrough[col] = v
	}

	return rec
}

// splitRange splits a time range on '-' or an en-dash. Only a value with
// exactly one separator is a range; sides are trimmed and may be empty.
func splitRange(v string) (string, string, bool) {
	if strings.Count(v, "-")+strings.Count(v, "–") != 1 {
		return "", "", false
	}
	idx := strings.IndexFunc(v, isRangeSeparator)
	_, width := utf8.DecodeRuneInString(v[idx:])
	return strings.TrimSpace(v[:idx]), strings.TrimSpace(v[idx+width:]), true
}

func isRangeSeparator(r rune) bool {
	return r == '-' || r == '–'
}

func buildNotes(r model.RawRow, m model.ColumnMapping) []string {
	var notes []string
	seen := make(map[string]bool, len(m.Notes))

	add := func(col string) {
		if seen[col] || model.IsPassthrough(col) {
			return
		}
		seen[col] = true
		v := strings.TrimSpace(r.Get(col))
		if v == "" {
			return
		}
		notes = append(notes, FormatKey(col)+": "+v)
	}

	for _, col := range m.Notes {
		add(col)
	}
	// Rows after the sample may carry columns the detector never saw.
	for _, col := range r.Columns() {
		if m.Claimed(col) {
			continue
		}
		add(col)
	}
	return notes
}

func synthesizeTitle(notes []string) string {
	if len(notes) == 0 {
		return model.GeneralTitle
	}
	key, _, _ := strings.Cut(notes[0], ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return model.GeneralTitle
	}
	return key
}

// FormatKey turns a header like "due_date" or "pay-grade" into "Due Date" /
// "Pay Grade". Only the first letter of each word is changed.
func FormatKey(col string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(col)
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func cell(r model.RawRow, col string) string {
	if col == "" {
		return ""
	}
	return strings.TrimSpace(r.Get(col))
}
