package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// RawRow is a single spreadsheet row keyed by its source column names. Column
// order is the header order of the source file; values are blank-defaulted.
type RawRow struct {
	cols   []string
	values map[string]string
}

// NewRawRow builds a row from a header list and the matching cells. Missing
// cells become "", extra cells are ignored.
func NewRawRow(cols []string, cells []string) RawRow {
	r := RawRow{
		cols:   make([]string, 0, len(cols)),
		values: make(map[string]string, len(cols)),
	}
	for i, c := range cols {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		r.Set(c, v)
	}
	return r
}

// Set assigns a value, appending the column if it is new.
func (r *RawRow) Set(col, val string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.values[col] = val
}

// Get returns the cell under col, or "" if the row has no such column.
func (r RawRow) Get(col string) string {
	return r.values[col]
}

// Columns returns the column names in source order.
func (r RawRow) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// MarshalJSON writes the row as an object with keys in column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ColumnMapping is the per-batch correspondence between semantic fields and
// source column names. An empty string means the slot is unset.
type ColumnMapping struct {
	Name      string   `json:"name,omitempty"`
	Date      string   `json:"date,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
	Type      string   `json:"type,omitempty"`
	Title     string   `json:"title,omitempty"`
	Location  string   `json:"location,omitempty"`
	Notes     []string `json:"notes"`
}

// Claimed reports whether col occupies one of the named slots (not notes).
func (m ColumnMapping) Claimed(col string) bool {
	if col == "" {
		return false
	}
	switch col {
	case m.Name, m.Date, m.StartTime, m.EndTime, m.Type, m.Title, m.Location:
		return true
	}
	return false
}

// IsEmpty reports whether nothing was mapped at all.
func (m ColumnMapping) IsEmpty() bool {
	return m.Name == "" && m.Date == "" && m.StartTime == "" && m.EndTime == "" &&
		m.Type == "" && m.Title == "" && m.Location == "" && len(m.Notes) == 0
}

// Item types.
const (
	ItemEvent   = "event"
	ItemGeneral = "general"
)

// DefaultType is used when a row has no usable type cell.
const DefaultType = "task"

// GeneralTitle is the title of a row that offers nothing better.
const GeneralTitle = "General Item"

// PassthroughColumns are evaluation columns copied verbatim onto a record.
var PassthroughColumns = []string{
	"Ratee Name",
	"Rank or Grade",
	"Evaluation Reason",
	"Evaluation Created Date",
	"Review Period Start Date",
	"Evaluation Closeout Date",
	"Review Period End Date",
	"Coordination Status",
	"# Days in Coordination",
	"Assigned To",
}

var passthroughSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PassthroughColumns))
	for _, c := range PassthroughColumns {
		m[c] = struct{}{}
	}
	return m
}()

// IsPassthrough reports whether col is one of the fixed evaluation columns.
func IsPassthrough(col string) bool {
	_, ok := passthroughSet[col]
	return ok
}

// CanonicalRecord is the normalized unit that flows through classification,
// categorization and sorting regardless of the source layout.
type CanonicalRecord struct {
	Name      string `json:"Name"`
	Date      string `json:"Date"`
	StartTime string `json:"StartTime"`
	EndTime   string `json:"EndTime"`
	Type      string `json:"Type"`
	Title     string `json:"Title"`
	Location  string `json:"Location"`
	Notes     string `json:"Notes,omitempty"`

	// Passthrough holds nonblank evaluation columns keyed by their literal
	// source name. It is flattened into the top-level JSON object.
	Passthrough map[string]string `json:"-"`

	IsManual      bool   `json:"_isManual,omitempty"`
	ManualEventID string `json:"_manualEventId,omitempty"`
	ItemType      string `json:"itemType,omitempty"`
}

// HasPassthrough reports whether any evaluation column carries a value.
func (r CanonicalRecord) HasPassthrough() bool {
	for _, v := range r.Passthrough {
		if v != "" {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no maps with r.
func (r CanonicalRecord) Clone() CanonicalRecord {
	out := r
	if r.Passthrough != nil {
		out.Passthrough = make(map[string]string, len(r.Passthrough))
		for k, v := range r.Passthrough {
			out.Passthrough[k] = v
		}
	}
	return out
}

type canonicalAlias CanonicalRecord

func (r CanonicalRecord) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(canonicalAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Passthrough) == 0 {
		return base, nil
	}
	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, col := range PassthroughColumns {
		v, ok := r.Passthrough[col]
		if !ok || v == "" {
			continue
		}
		k, _ := json.Marshal(col)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *CanonicalRecord) UnmarshalJSON(data []byte) error {
	var a canonicalAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*r = CanonicalRecord(a)
	for _, col := range PassthroughColumns {
		raw, ok := all[col]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil || v == "" {
			continue
		}
		if r.Passthrough == nil {
			r.Passthrough = make(map[string]string)
		}
		r.Passthrough[col] = v
	}
	return nil
}

// ClassifiedRecord is a canonical record with its item type and derived
// sortable moments. StartAt/EndAt are nil when the date or time is unusable.
type ClassifiedRecord struct {
	CanonicalRecord
	StartAt *time.Time `json:"_startDateTime,omitempty"`
	EndAt   *time.Time `json:"_endDateTime,omitempty"`
}

func (c ClassifiedRecord) IsEvent() bool {
	return c.ItemType == ItemEvent
}

func (c ClassifiedRecord) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(c.CanonicalRecord)
	if err != nil {
		return nil, err
	}
	extra := struct {
		StartAt *time.Time `json:"_startDateTime,omitempty"`
		EndAt   *time.Time `json:"_endDateTime,omitempty"`
	}{c.StartAt, c.EndAt}
	tail, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if len(tail) <= 2 {
		return base, nil
	}
	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	buf.WriteByte(',')
	buf.Write(tail[1:])
	return buf.Bytes(), nil
}

// UploadedFile is one normalized source file as persisted. OriginalColumns is
// the literal header order captured at parse time.
type UploadedFile struct {
	Name            string            `json:"name"`
	NormalizedData  []CanonicalRecord `json:"normalizedData"`
	RecordCount     int               `json:"recordCount"`
	OriginalColumns []string          `json:"originalColumns"`
	UploadedAt      time.Time         `json:"uploadedAt"`
}

// Categories buckets general items for the categorized views.
type Categories struct {
	Training        []ClassifiedRecord `json:"training"`
	EPBEvaluations  []ClassifiedRecord `json:"epbEvaluations"`
	OverdueVouchers []ClassifiedRecord `json:"overdueVouchers"`
	OverdueEPB      []ClassifiedRecord `json:"overdueEpb"`
}

// Snapshot is the persisted shape of the two source collections. The working
// set is never stored; it is rebuilt from these on load.
type Snapshot struct {
	UploadedFiles []UploadedFile    `json:"uploadedFiles"`
	ManualEvents  []CanonicalRecord `json:"manualEvents"`
}
