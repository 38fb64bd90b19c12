package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rostercal/internal/model"
)

func row(cols []string, cells ...string) model.RawRow {
	return model.NewRawRow(cols, cells)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "starttime", NormalizeHeader("Start_Time"))
	assert.Equal(t, "locationname", NormalizeHeader(" Location - Name "))
	assert.Equal(t, "#daysincoordination", NormalizeHeader("# Days in Coordination"))
}

func TestDetectEmpty(t *testing.T) {
	m := Detect(model.RawRow{})
	assert.True(t, m.IsEmpty())
	assert.NotNil(t, m.Notes)
}

func TestDetectStandardHeaders(t *testing.T) {
	m := Detect(row([]string{"Event", "Time", "Location", "Name"}, "PT Test", "0700-0800", "Gym", "Jane Doe"))

	assert.Equal(t, "Event", m.Title)
	assert.Equal(t, "Time", m.StartTime)
	assert.Equal(t, "Location", m.Location)
	assert.Equal(t, "Name", m.Name)
	assert.Empty(t, m.Date)
	assert.Empty(t, m.Notes)
}

func TestDetectLegacyHeaders(t *testing.T) {
	m := Detect(row(
		[]string{"Member", "Day", "Start Time", "End Time", "Category", "Description", "Room", "Remarks"},
		"Jane Doe", "2025-03-14", "0800", "0900", "Medical", "Dental", "B12", "bring records",
	))

	assert.Equal(t, "Member", m.Name)
	assert.Equal(t, "Day", m.Date)
	assert.Equal(t, "Start Time", m.StartTime)
	assert.Equal(t, "End Time", m.EndTime)
	assert.Equal(t, "Category", m.Type)
	assert.Equal(t, "Description", m.Title)
	assert.Equal(t, "Room", m.Location)
	assert.Equal(t, []string{"Remarks"}, m.Notes)
}

func TestDetectPrefersStandardOverLegacy(t *testing.T) {
	cols := []string{"Title", "StartTime", "EndTime", "Location Name", "Event", "Time", "Location", "Name"}
	m := Detect(row(cols, "Old", "0700", "0800", "Old Gym", "PT Test", "0700-0800", "Gym", "Jane Doe"))

	assert.Equal(t, "Event", m.Title)
	assert.Equal(t, "Time", m.StartTime)
	assert.Equal(t, "Location", m.Location)
	assert.Equal(t, "Name", m.Name)
	assert.Equal(t, "EndTime", m.EndTime)
	assert.Equal(t, []string{"Title", "StartTime", "Location Name"}, m.Notes)
}

func TestDetectContentFallbacks(t *testing.T) {
	m := Detect(row([]string{"Who", "When", "Start", "End"}, "Jane", "03/14/2025", "0800", "0930"))

	assert.Equal(t, "Who", m.Name, "first column falls back to name")
	assert.Equal(t, "When", m.Date, "cell parses as a date")
	assert.Equal(t, "Start", m.StartTime)
	assert.Equal(t, "End", m.EndTime)
}

func TestDetectBareStartWithoutTimeIsNotes(t *testing.T) {
	m := Detect(row([]string{"Name", "Start", "Task"}, "Jane", "soon", "Inventory"))

	assert.Empty(t, m.StartTime)
	assert.Equal(t, "Task", m.Title)
	assert.Equal(t, []string{"Start"}, m.Notes)
}

func TestDetectTitlePromotion(t *testing.T) {
	t.Run("prefers status-like column", func(t *testing.T) {
		m := Detect(row([]string{"Name", "Unit", "EPB Status", "Remarks"}, "Jane", "OSS", "Overdue", ""))
		assert.Equal(t, "EPB Status", m.Title)
		assert.Equal(t, []string{"Unit", "Remarks"}, m.Notes)
	})

	t.Run("falls back to first notes column", func(t *testing.T) {
		m := Detect(row([]string{"Name", "Unit", "Remarks"}, "Jane", "OSS", "x"))
		assert.Equal(t, "Unit", m.Title)
		assert.Equal(t, []string{"Remarks"}, m.Notes)
	})
}

func TestDetectEvaluationRoster(t *testing.T) {
	m := Detect(row([]string{"Ratee Name", "Rank or Grade", "Evaluation Reason"}, "John Smith", "SSgt", "Annual"))

	assert.Equal(t, "Ratee Name", m.Name)
	assert.Equal(t, "Rank or Grade", m.Title)
	assert.Equal(t, []string{"Evaluation Reason"}, m.Notes)
}

func TestDetectColumnClaimsOneSlot(t *testing.T) {
	m := Detect(row([]string{"Event", "Event Type", "Event Date"}, "PT", "fitness", "2025-01-01"))

	slots := []string{m.Name, m.Date, m.StartTime, m.EndTime, m.Type, m.Title, m.Location}
	seen := map[string]int{}
	for _, s := range slots {
		if s != "" {
			seen[s]++
		}
	}
	for col, n := range seen {
		assert.Equal(t, 1, n, "column %q claimed %d slots", col, n)
	}
	for _, n := range m.Notes {
		assert.Zero(t, seen[n], "notes column %q also claimed a slot", n)
	}
}

func TestDetectIdempotent(t *testing.T) {
	r := row([]string{"Member", "Date", "Time", "Event", "Misc"}, "Jane", "2025-03-14", "0700-0800", "PT", "x")
	assert.Equal(t, Detect(r), Detect(r))
}

func TestHeuristicRuleOrder(t *testing.T) {
	names := make([]string, len(HeuristicRules))
	for i, r := range HeuristicRules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"event", "time", "location", "name", "date", "start time", "end time", "type", "title", "place",
	}, names)
}
