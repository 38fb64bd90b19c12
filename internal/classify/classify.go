// Package classify decides whether a canonical record is a scheduled event
// or a general item, and buckets general items into the categorized views.
package classify

import (
	"strings"
	"time"

	"rostercal/internal/model"
	"rostercal/internal/parse"
)

// Facts are the inputs every classification rule looks at.
type Facts struct {
	Search       string // lowercased Title + Type + Notes + Location
	HasValidTime bool   // start and end both present and parseable
	HasLocation  bool
}

// TypeRule yields an item type when Match holds. Rules run in order and the
// first match wins.
type TypeRule struct {
	Name   string
	Match  func(f Facts) bool
	Result string
}

var TypeRules = []TypeRule{
	{
		Name:   "timed with location",
		Match:  func(f Facts) bool { return f.HasValidTime && f.HasLocation },
		Result: model.ItemEvent,
	},
	{
		Name:   "timed without general keywords",
		Match:  func(f Facts) bool { return f.HasValidTime && !GeneralItemKeywords.In(f.Search) },
		Result: model.ItemEvent,
	},
	{
		Name:   "general keywords",
		Match:  func(f Facts) bool { return GeneralItemKeywords.In(f.Search) },
		Result: model.ItemGeneral,
	},
	{
		Name:   "untimed",
		Match:  func(f Facts) bool { return !f.HasValidTime },
		Result: model.ItemGeneral,
	},
}

// FactsOf extracts the classification inputs from a record.
func FactsOf(r model.CanonicalRecord) Facts {
	return Facts{
		Search:       searchText(r.Title, r.Type, r.Notes, r.Location),
		HasValidTime: validTime(r.StartTime) && validTime(r.EndTime),
		HasLocation:  strings.TrimSpace(r.Location) != "",
	}
}

// ItemType applies TypeRules to an imported record.
func ItemType(r model.CanonicalRecord) string {
	f := FactsOf(r)
	for _, rule := range TypeRules {
		if rule.Match(f) {
			return rule.Result
		}
	}
	if f.HasValidTime {
		return model.ItemEvent
	}
	return model.ItemGeneral
}

// ManualItemType is how manually entered items are typed at creation time:
// a parseable start time makes an event, no keyword checks.
func ManualItemType(startTime string) string {
	if validTime(startTime) {
		return model.ItemEvent
	}
	return model.ItemGeneral
}

// Classify attaches the item type and the sortable start/end moments. A
// record whose ItemType is already set keeps it.
func Classify(r model.CanonicalRecord, loc *time.Location) model.ClassifiedRecord {
	out := model.ClassifiedRecord{CanonicalRecord: r.Clone()}
	if out.ItemType == "" {
		out.ItemType = ItemType(r)
	}
	if t, ok := parse.Instant(r.Date, r.StartTime, loc); ok {
		out.StartAt = &t
	}
	if t, ok := parse.Instant(r.Date, r.EndTime, loc); ok {
		out.EndAt = &t
	}
	return out
}

// ClassifyAll classifies every record, preserving order.
func ClassifyAll(recs []model.CanonicalRecord, loc *time.Location) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, len(recs))
	for i, r := range recs {
		out[i] = Classify(r, loc)
	}
	return out
}

func validTime(s string) bool {
	return strings.TrimSpace(s) != "" && parse.ValidTime(s)
}

func searchText(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
