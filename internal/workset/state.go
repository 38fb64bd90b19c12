// Package workset owns the two sources of truth (uploaded files and manual
// events) and the working set derived from them.
//
// The working set is never patched: every mutation of a source is followed,
// inside the same critical section, by a full rebuild from both sources.
package workset

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"

	"rostercal/internal/classify"
	appLog "rostercal/internal/log"
	"rostercal/internal/metrics"
	"rostercal/internal/model"
	"rostercal/internal/normalize"
)

var (
	ErrFileNotFound        = errors.New("uploaded file not found")
	ErrManualEventNotFound = errors.New("manual event not found")
	ErrEmptyFileName       = errors.New("file name is empty")
	ErrInvalidManualEvent  = errors.New("invalid manual event")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Persister stores the source collections after every successful mutation.
type Persister interface {
	Save(snap model.Snapshot) error
}

// ManualInput is a user-entered event or item.
type ManualInput struct {
	Name      string `json:"Name" validate:"max=200"`
	Date      string `json:"Date" validate:"max=64"`
	StartTime string `json:"StartTime" validate:"max=32"`
	EndTime   string `json:"EndTime" validate:"max=32"`
	Type      string `json:"Type" validate:"max=64"`
	Title     string `json:"Title" validate:"required,max=500"`
	Location  string `json:"Location" validate:"max=200"`
	Notes     string `json:"Notes" validate:"max=4000"`
}

func (in ManualInput) trimmed() ManualInput {
	return ManualInput{
		Name:      strings.TrimSpace(in.Name),
		Date:      strings.TrimSpace(in.Date),
		StartTime: strings.TrimSpace(in.StartTime),
		EndTime:   strings.TrimSpace(in.EndTime),
		Type:      strings.TrimSpace(in.Type),
		Title:     strings.TrimSpace(in.Title),
		Location:  strings.TrimSpace(in.Location),
		Notes:     strings.TrimSpace(in.Notes),
	}
}

// Option configures a State.
type Option func(*State)

// WithLocation sets the zone used to build sortable instants.
func WithLocation(loc *time.Location) Option {
	return func(s *State) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPersister saves sources after each mutation. A failed save rolls the
// mutation back.
func WithPersister(p Persister) Option {
	return func(s *State) { s.persister = p }
}

// WithClock overrides time.Now for upload timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// State is the single coordinator for sources and the derived working set.
type State struct {
	mu sync.RWMutex

	files  []model.UploadedFile
	manual []model.CanonicalRecord

	working []model.ClassifiedRecord

	loc       *time.Location
	persister Persister
	now       func() time.Time
}

func NewState(opts ...Option) *State {
	s := &State{
		loc: time.UTC,
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.rebuildLocked()
	return s
}

// UploadFile normalizes rows and stores them under name. A file with the same
// name is replaced in place; otherwise the file is appended.
func (s *State) UploadFile(name string, columns []string, rows []model.RawRow) (model.UploadedFile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return model.UploadedFile{}, ErrEmptyFileName
	}

	recs, _ := normalize.Rows(rows)
	file := model.UploadedFile{
		Name:            name,
		NormalizedData:  recs,
		RecordCount:     len(recs),
		OriginalColumns: append([]string{}, columns...),
		UploadedAt:      s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := "added"
	err := s.mutateLocked(func() {
		for i := range s.files {
			if s.files[i].Name == name {
				s.files[i] = file
				outcome = "replaced"
				return
			}
		}
		s.files = append(s.files, file)
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return model.UploadedFile{}, err
	}

	metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	appLog.Info("file uploaded", "name", name, "records", file.RecordCount, "columns", len(columns), "outcome", outcome)
	return file, nil
}

// RemoveFile drops an uploaded file by name. The name is trimmed the same
// way UploadFile trims it.
func (s *State) RemoveFile(name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.files {
		if s.files[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(ErrFileNotFound, "remove %q", name)
	}

	err := s.mutateLocked(func() {
		s.files = append(s.files[:idx:idx], s.files[idx+1:]...)
	})
	if err != nil {
		return err
	}
	metrics.FilesRemovedTotal.Inc()
	appLog.Info("file removed", "name", name)
	return nil
}

// AddManualEvent validates in and appends it as a manual record. The item
// type is fixed here from the start time alone.
func (s *State) AddManualEvent(in ManualInput) (model.CanonicalRecord, error) {
	in = in.trimmed()
	if err := validate.Struct(in); err != nil {
		return model.CanonicalRecord{}, errors.Wrap(ErrInvalidManualEvent, err.Error())
	}

	typ := strings.ToLower(in.Type)
	if typ == "" {
		typ = model.DefaultType
	}
	rec := model.CanonicalRecord{
		Name:          in.Name,
		Date:          in.Date,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Type:          typ,
		Title:         in.Title,
		Location:      in.Location,
		Notes:         in.Notes,
		IsManual:      true,
		ManualEventID: uuid.NewString(),
		ItemType:      classify.ManualItemType(in.StartTime),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutateLocked(func() { s.manual = append(s.manual, rec) }); err != nil {
		return model.CanonicalRecord{}, err
	}
	metrics.ManualEventsTotal.WithLabelValues("add").Inc()
	appLog.Info("manual event added", "id", rec.ManualEventID, "item_type", rec.ItemType)
	return rec, nil
}

// DeleteManualEvent removes the manual record with the given id.
func (s *State) DeleteManualEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.manual {
		if s.manual[i].ManualEventID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(ErrManualEventNotFound, "delete %q", id)
	}

	err := s.mutateLocked(func() {
		s.manual = append(s.manual[:idx:idx], s.manual[idx+1:]...)
	})
	if err != nil {
		return err
	}
	metrics.ManualEventsTotal.WithLabelValues("delete").Inc()
	appLog.Info("manual event deleted", "id", id)
	return nil
}

// Rebuild recomputes the working set from the sources.
func (s *State) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
}

// Restore replaces both sources with a persisted snapshot and rebuilds. It
// does not persist.
func (s *State) Restore(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = cloneFiles(snap.UploadedFiles)
	s.manual = cloneRecords(snap.ManualEvents)
	s.rebuildLocked()
	appLog.Info("state restored", "files", len(s.files), "manual_events", len(s.manual), "records", len(s.working))
}

// Snapshot returns a deep copy of both sources.
func (s *State) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Files returns the uploaded files in upload order.
func (s *State) Files() []model.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFiles(s.files)
}

// Manual returns the manual records in insertion order.
func (s *State) Manual() []model.CanonicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.manual)
}

// WorkingSet returns the merged, classified records in merge order.
func (s *State) WorkingSet() []model.ClassifiedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ClassifiedRecord, len(s.working))
	copy(out, s.working)
	return out
}

// Records returns person's view of the working set, sorted. An empty person
// returns everything.
func (s *State) Records(person string) []model.ClassifiedRecord {
	s.mu.RLock()
	recs := FilterByPerson(s.working, person)
	s.mu.RUnlock()
	Sort(recs)
	return recs
}

// Events returns only the event records of person's view, sorted.
func (s *State) Events(person string) []model.ClassifiedRecord {
	return byItemType(s.Records(person), model.ItemEvent)
}

// GeneralItems returns only the general items of person's view, sorted.
func (s *State) GeneralItems(person string) []model.ClassifiedRecord {
	return byItemType(s.Records(person), model.ItemGeneral)
}

// Categories buckets person's general items.
func (s *State) Categories(person string) model.Categories {
	return classify.Categorize(s.GeneralItems(person))
}

// People lists distinct names in the working set. With a query the names are
// fuzzy matched and ranked; without one they are sorted alphabetically.
func (s *State) People(query string) []string {
	s.mu.RLock()
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, r := range s.working {
		n := strings.TrimSpace(r.Name)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, n)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	query = strings.TrimSpace(query)
	if query == "" {
		return names
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

// mutateLocked applies fn, rebuilds and persists. If persisting fails the
// sources are put back and the working set rebuilt again.
func (s *State) mutateLocked(fn func()) error {
	prev := s.snapshotLocked()
	fn()
	s.rebuildLocked()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		s.files = prev.UploadedFiles
		s.manual = prev.ManualEvents
		s.rebuildLocked()
		appLog.Error("persist failed, mutation rolled back", err)
		return errors.Wrap(err, "persist sources")
	}
	return nil
}

func (s *State) rebuildLocked() {
	start := time.Now()
	merged := Merge(s.files, s.manual)
	s.working = classify.ClassifyAll(merged, s.loc)

	events := 0
	for _, r := range s.working {
		if r.IsEvent() {
			events++
		}
	}
	metrics.RebuildsTotal.Inc()
	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	metrics.WorkingSetRecords.WithLabelValues(model.ItemEvent).Set(float64(events))
	metrics.WorkingSetRecords.WithLabelValues(model.ItemGeneral).Set(float64(len(s.working) - events))
	appLog.Debug("working set rebuilt", "records", len(s.working), "events", events)
}

func (s *State) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		UploadedFiles: cloneFiles(s.files),
		ManualEvents:  cloneRecords(s.manual),
	}
}

func byItemType(recs []model.ClassifiedRecord, itemType string) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, 0, len(recs))
	for _, r := range recs {
		if r.ItemType == itemType {
			out = append(out, r)
		}
	}
	return out
}

func cloneFiles(in []model.UploadedFile) []model.UploadedFile {
	out := make([]model.UploadedFile, len(in))
	for i, f := range in {
		f.NormalizedData = cloneRecords(f.NormalizedData)
		f.OriginalColumns = append([]string{}, f.OriginalColumns...)
		out[i] = f
	}
	return out
}

func cloneRecords(in []model.CanonicalRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
