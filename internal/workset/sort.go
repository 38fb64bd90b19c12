package workset

import (
	"sort"
	"strings"

	"rostercal/internal/model"
)

// Merge concatenates every uploaded file's records in upload order followed by
// the manual records in insertion order. The result shares nothing with its
// inputs.
func Merge(files []model.UploadedFile, manual []model.CanonicalRecord) []model.CanonicalRecord {
	n := len(manual)
	for _, f := range files {
		n += len(f.NormalizedData)
	}
	out := make([]model.CanonicalRecord, 0, n)
	for _, f := range files {
		for _, r := range f.NormalizedData {
			out = append(out, r.Clone())
		}
	}
	for _, r := range manual {
		out = append(out, r.Clone())
	}
	return out
}

// MatchesPerson reports whether rec belongs in person's view. Unnamed records
// apply to everyone.
func MatchesPerson(name, person string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return true
	}
	return n == strings.ToLower(strings.TrimSpace(person))
}

// FilterByPerson keeps the records matching person. An empty person keeps
// everything.
func FilterByPerson(recs []model.ClassifiedRecord, person string) []model.ClassifiedRecord {
	if strings.TrimSpace(person) == "" {
		out := make([]model.ClassifiedRecord, len(recs))
		copy(out, recs)
		return out
	}
	out := make([]model.ClassifiedRecord, 0, len(recs))
	for _, r := range recs {
		if MatchesPerson(r.Name, person) {
			out = append(out, r)
		}
	}
	return out
}

// Less orders events before general items. Events compare by start instant
// when both have one, then by Date, then by StartTime; general items compare
// by Title.
func Less(a, b model.ClassifiedRecord) bool {
	ae, be := a.IsEvent(), b.IsEvent()
	if ae != be {
		return ae
	}
	if !ae {
		return a.Title < b.Title
	}
	if a.StartAt != nil && b.StartAt != nil {
		if !a.StartAt.Equal(*b.StartAt) {
			return a.StartAt.Before(*b.StartAt)
		}
		return false
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.StartTime < b.StartTime
}

// Sort orders recs in place with Less. Equal elements keep their order.
func Sort(recs []model.ClassifiedRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return Less(recs[i], recs[j]) })
}
