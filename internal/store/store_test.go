package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostercal/internal/model"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.NotNil(t, snap.UploadedFiles)
	assert.NotNil(t, snap.ManualEvents)
	assert.Empty(t, snap.UploadedFiles)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state.json")
	f := NewFile(path)

	snap := model.Snapshot{
		UploadedFiles: []model.UploadedFile{{
			Name: "evals.xlsx",
			NormalizedData: []model.CanonicalRecord{{
				Name:        "John Smith",
				Title:       "General Item",
				Type:        "task",
				Passthrough: map[string]string{"Ratee Name": "John Smith", "Evaluation Reason": "Annual"},
			}},
			RecordCount:     1,
			OriginalColumns: []string{"Ratee Name", "Rank or Grade", "Evaluation Reason"},
			UploadedAt:      time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		}},
		ManualEvents: []model.CanonicalRecord{{
			Title: "Dentist", Type: "task", IsManual: true, ManualEventID: "abc", ItemType: model.ItemGeneral,
		}},
	}
	require.NoError(t, f.Save(snap))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRecomputesRecordCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw := `{"uploadedFiles":[{"name":"a.csv","normalizedData":[{"Title":"x"},{"Title":"y"}],"recordCount":7}],"manualEvents":null}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	snap, err := Load(path)
	require.NoError(t, err)
	require.Len(t, snap.UploadedFiles, 1)
	assert.Equal(t, 2, snap.UploadedFiles[0].RecordCount)
	assert.NotNil(t, snap.ManualEvents)
}

func TestWriteFileAtomicLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, WriteFileAtomic(path, []byte("1"), ".tmp-*"))
	require.NoError(t, WriteFileAtomic(path, []byte("2"), ".tmp-*"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))
}
