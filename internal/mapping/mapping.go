// Package mapping infers which semantic field each spreadsheet column holds.
//
// Detection looks at a single sample row: its header names first, its cell
// content second. Rules are data (see rules.go) evaluated in priority order;
// a column claims at most one slot and the first match wins. Detection never
// fails: when nothing obvious is found the fallbacks below still produce a
// usable mapping.
package mapping

import (
	"strings"

	appLog "rostercal/internal/log"
	"rostercal/internal/model"
)

// Detect builds the column mapping for a batch from its sample row. An empty
// row yields an empty mapping, which callers treat as nothing to normalize.
func Detect(sample model.RawRow) model.ColumnMapping {
	m := model.ColumnMapping{Notes: []string{}}

	cols := sample.Columns()
	if len(cols) == 0 {
		return m
	}

	columns := make([]Column, len(cols))
	for i, c := range cols {
		columns[i] = Column{
			Raw:        c,
			Normalized: NormalizeHeader(c),
			Index:      i,
			Value:      strings.TrimSpace(sample.Get(c)),
		}
	}

	claimed := make(map[string]bool, len(cols))

	// Standard vocabulary, rule-major: each exact header claims its slot no
	// matter where it sits in the file.
	for _, r := range StandardRules {
		if get(&m, r.Slot) != "" {
			continue
		}
		for _, c := range columns {
			if claimed[c.Raw] || !r.Match(c) {
				continue
			}
			set(&m, r.Slot, c.Raw)
			claimed[c.Raw] = true
			break
		}
	}

	// Heuristics, column-major.
	for _, c := range columns {
		if claimed[c.Raw] {
			continue
		}
		if r, ok := firstMatch(&m, c); ok {
			set(&m, r.Slot, c.Raw)
			claimed[c.Raw] = true
			continue
		}
		m.Notes = append(m.Notes, c.Raw)
	}

	promoteTitle(&m)
	fallbackName(&m, columns[0].Raw)

	appLog.Debug("column mapping detected",
		"name", m.Name,
		"date", m.Date,
		"start_time", m.StartTime,
		"end_time", m.EndTime,
		"type", m.Type,
		"title", m.Title,
		"location", m.Location,
		"notes", len(m.Notes),
	)
	return m
}

func firstMatch(m *model.ColumnMapping, c Column) (Rule, bool) {
	for _, r := range HeuristicRules {
		if get(m, r.Slot) != "" {
			continue
		}
		if r.Match(c) {
			return r, true
		}
	}
	return Rule{}, false
}

// promoteTitle moves a notes column into the title slot when no column
// qualified, preferring status/rating/review-like headers.
func promoteTitle(m *model.ColumnMapping) {
	if m.Title != "" || len(m.Notes) == 0 {
		return
	}
	pick := 0
	for i, n := range m.Notes {
		if containsAny(strings.ToLower(n), TitlePromotionTokens) {
			pick = i
			break
		}
	}
	m.Title = m.Notes[pick]
	m.Notes = append(m.Notes[:pick:pick], m.Notes[pick+1:]...)
}

// fallbackName gives the name slot to the first column when nothing else did.
// The first column is only taken if it is still unclaimed so that no column
// ever fills two slots; otherwise the batch has no name column and its
// records apply to everyone.
func fallbackName(m *model.ColumnMapping, first string) {
	if m.Name != "" {
		return
	}
	for i, n := range m.Notes {
		if n == first {
			m.Name = first
			m.Notes = append(m.Notes[:i:i], m.Notes[i+1:]...)
			return
		}
	}
}
