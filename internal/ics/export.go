package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "rostercal/internal/log"
	"rostercal/internal/model"
)

const productID = "-//rostercal//roster calendar//EN"

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("rostercal"))

// Export writes every event record with a start instant as a VEVENT. Records
// without an instant cannot be placed on a calendar and are skipped.
func Export(recs []model.ClassifiedRecord, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	n := 0
	for _, r := range recs {
		if !r.IsEvent() || r.StartAt == nil {
			continue
		}
		ev := cal.AddEvent(recordUID(r))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(r.StartAt.UTC())
		if r.EndAt != nil && r.EndAt.After(*r.StartAt) {
			ev.SetEndAt(r.EndAt.UTC())
		}
		ev.SetSummary(r.Title)
		if r.Location != "" {
			ev.SetLocation(r.Location)
		}
		if d := description(r); d != "" {
			ev.SetDescription(d)
		}
		n++
	}

	appLog.Debug("ics export", "records", len(recs), "events", n)
	return cal.Serialize()
}

// recordUID is stable across rebuilds: manual events reuse their id and
// imported rows hash their identifying fields.
func recordUID(r model.ClassifiedRecord) string {
	if r.ManualEventID != "" {
		return r.ManualEventID + "@rostercal"
	}
	key := strings.Join([]string{r.Name, r.Date, r.StartTime, r.EndTime, r.Title, r.Location}, "\x1f")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@rostercal"
}

func description(r model.ClassifiedRecord) string {
	var parts []string
	if r.Name != "" {
		parts = append(parts, "Name: "+r.Name)
	}
	if r.Type != "" {
		parts = append(parts, "Type: "+r.Type)
	}
	if r.Notes != "" {
		parts = append(parts, r.Notes)
	}
	return strings.Join(parts, "\n")
}
