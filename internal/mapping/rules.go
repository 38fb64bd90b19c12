package mapping

import (
	"strings"
	"unicode"

	"rostercal/internal/model"
	"rostercal/internal/parse"
)

// Slot names a ColumnMapping field a rule can claim.
type Slot string

const (
	SlotName      Slot = "name"
	SlotDate      Slot = "date"
	SlotStartTime Slot = "startTime"
	SlotEndTime   Slot = "endTime"
	SlotType      Slot = "type"
	SlotTitle     Slot = "title"
	SlotLocation  Slot = "location"
)

// Column is what a rule gets to look at.
type Column struct {
	Raw        string // header as it appears in the file
	Normalized string // lowercased, without '_', '-' and whitespace
	Index      int    // position in the sample row
	Value      string // sample cell under this header
}

// Rule claims Slot for the first unclaimed column that satisfies Match while
// the slot is still unset.
type Rule struct {
	Name  string
	Slot  Slot
	Match func(c Column) bool
}

// Vocabulary lists, kept as data so each can be tested on its own.
var (
	NameTokens      = []string{"name", "ratename", "airman", "member", "person"}
	DateTokens      = []string{"date", "day"}
	StartTimeTokens = []string{"starttime", "start_time", "begintime"}
	EndTimeTokens   = []string{"endtime", "end_time", "finishtime"}
	TypeTokens      = []string{"type", "category"}
	TitleTokens     = []string{"title", "description", "task", "subject", "summary", "item"}
	LocationTokens  = []string{"place", "venue", "room", "building"}

	// TitlePromotionTokens pick which notes column becomes the title when
	// nothing else qualified. Matched against the lowercased raw header.
	TitlePromotionTokens = []string{"status", "rating", "review", "epb", "epr", "type", "category"}
)

// StandardRules match the standardized export headers exactly. They run over
// every column before any heuristic so files in the new layout win over
// legacy columns wherever those appear.
var StandardRules = []Rule{
	{Name: "event", Slot: SlotTitle, Match: exact("event")},
	{Name: "time", Slot: SlotStartTime, Match: exact("time")},
	{Name: "location", Slot: SlotLocation, Match: exact("location")},
	{Name: "name", Slot: SlotName, Match: exact("name")},
}

// HeuristicRules are evaluated column by column in this order; the first rule
// whose slot is free and whose predicate holds claims the column.
var HeuristicRules = []Rule{
	{Name: "event", Slot: SlotTitle, Match: exact("event")},
	{Name: "time", Slot: SlotStartTime, Match: exact("time")},
	{Name: "location", Slot: SlotLocation, Match: exact("location")},
	{Name: "name", Slot: SlotName, Match: func(c Column) bool {
		return c.Index == 0 || containsAny(c.Normalized, NameTokens)
	}},
	{Name: "date", Slot: SlotDate, Match: func(c Column) bool {
		return containsAny(c.Normalized, DateTokens) || parse.ValidDate(c.Value)
	}},
	{Name: "start time", Slot: SlotStartTime, Match: func(c Column) bool {
		n := c.Normalized
		return containsAny(n, StartTimeTokens) ||
			(strings.Contains(n, "start") && strings.Contains(n, "time")) ||
			(n == "start" && parse.ValidTime(c.Value))
	}},
	{Name: "end time", Slot: SlotEndTime, Match: func(c Column) bool {
		n := c.Normalized
		return containsAny(n, EndTimeTokens) ||
			((strings.Contains(n, "end") || strings.Contains(n, "finish")) && strings.Contains(n, "time")) ||
			((n == "end" || n == "finish") && parse.ValidTime(c.Value))
	}},
	{Name: "type", Slot: SlotType, Match: func(c Column) bool {
		return containsAny(c.Normalized, TypeTokens) || c.Normalized == "kind"
	}},
	{Name: "title", Slot: SlotTitle, Match: func(c Column) bool {
		return containsAny(c.Normalized, TitleTokens)
	}},
	{Name: "place", Slot: SlotLocation, Match: func(c Column) bool {
		return containsAny(c.Normalized, LocationTokens)
	}},
}

// NormalizeHeader lowercases a header and strips '_', '-' and whitespace.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func exact(token string) func(Column) bool {
	return func(c Column) bool { return c.Normalized == token }
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func get(m *model.ColumnMapping, s Slot) string {
	switch s {
	case SlotName:
		return m.Name
	case SlotDate:
		return m.Date
	case SlotStartTime:
		return m.StartTime
	case SlotEndTime:
		return m.EndTime
	case SlotType:
		return m.Type
	case SlotTitle:
		return m.Title
	case SlotLocation:
		return m.Location
	}
	return ""
}

func set(m *model.ColumnMapping, s Slot, col string) {
	switch s {
	case SlotName:
		m.Name = col
	case SlotDate:
		m.Date = col
	case SlotStartTime:
		m.StartTime = col
	case SlotEndTime:
		m.EndTime = col
	case SlotType:
		m.Type = col
	case SlotTitle:
		m.Title = col
	case SlotLocation:
		m.Location = col
	}
}
