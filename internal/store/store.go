// Package store persists the uploaded files and manual events as a single
// JSON document. The working set is never stored.
package store

import (
	"encoding/json"
	"io/fs"
	"os"
	"sync"

	"github.com/pkg/errors"

	appLog "rostercal/internal/log"
	"rostercal/internal/model"
)

// File is a JSON snapshot store at a fixed path. It satisfies
// workset.Persister.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the snapshot. A missing file is an empty snapshot, not an error.
func (f *File) Load() (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Load(f.path)
}

// Save writes snap atomically.
func (f *File) Save(snap model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Save(f.path, snap)
}

// Load reads a snapshot from path.
func Load(path string) (model.Snapshot, error) {
	empty := model.Snapshot{
		UploadedFiles: []model.UploadedFile{},
		ManualEvents:  []model.CanonicalRecord{},
	}
	if path == "" {
		return empty, errors.New("state path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("no saved state, starting empty", "path", path)
			return empty, nil
		}
		return empty, errors.Wrap(err, "read state")
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return empty, errors.Wrapf(err, "decode state %s", path)
	}
	if snap.UploadedFiles == nil {
		snap.UploadedFiles = []model.UploadedFile{}
	}
	if snap.ManualEvents == nil {
		snap.ManualEvents = []model.CanonicalRecord{}
	}
	for i := range snap.UploadedFiles {
		snap.UploadedFiles[i].RecordCount = len(snap.UploadedFiles[i].NormalizedData)
	}
	return snap, nil
}

// Save writes snap to path with 0600 permissions.
func Save(path string, snap model.Snapshot) error {
	if snap.UploadedFiles == nil {
		snap.UploadedFiles = []model.UploadedFile{}
	}
	if snap.ManualEvents == nil {
		snap.ManualEvents = []model.CanonicalRecord{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	if err := WriteFileAtomic(path, data, ".rostercal-state-*.tmp"); err != nil {
		return errors.Wrap(err, "write state")
	}
	appLog.Debug("state saved", "path", path, "files", len(snap.UploadedFiles), "manual_events", len(snap.ManualEvents))
	return nil
}
