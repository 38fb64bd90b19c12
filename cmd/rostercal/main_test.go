package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rostercal/internal/config"
	"rostercal/internal/ics"
	"rostercal/internal/workset"
)

const feedBody = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:wing-1\r\nDTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250115T130000Z\r\nDTEND:20250115T140000Z\r\n" +
	"SUMMARY:Commander's Call\r\nLOCATION:Theater\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func TestRefreshFeedsReplacesByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Feeds = []config.FeedConfig{
		{ID: "wing", Name: "Wing", URL: srv.URL + "/wing.ics"},
		{ID: "broken", URL: "http://127.0.0.1:0/unreachable.ics"},
	}

	st := workset.NewState()
	fetcher := ics.NewFetcher(t.TempDir(), srv.Client())
	now := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, refreshFeeds(context.Background(), cfg, fetcher, st, now))
	assert.Equal(t, 1, refreshFeeds(context.Background(), cfg, fetcher, st, now))

	files := st.Files()
	require.Len(t, files, 1, "second refresh replaces the first")
	assert.Equal(t, "Wing.ics", files[0].Name)

	events := st.Events("")
	require.Len(t, events, 1)
	assert.Equal(t, "Commander's Call", events[0].Title)
	assert.Equal(t, "1300", events[0].StartTime)
	assert.Equal(t, "Theater", events[0].Location)
}

func TestNormalizeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("Event,Time,Location,Name\nPT Test,0700-0800,Gym,Jane Doe\nCDC,,,John Smith\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"normalize", path, "--person", "Jane Doe"})
	require.NoError(t, rootCmd.Execute())

	s := out.String()
	assert.Contains(t, s, `"file": "roster.csv"`)
	assert.Contains(t, s, `"Title": "PT Test"`)
	assert.NotContains(t, s, "John Smith")
}

func TestDiagramCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Phone,Supervisor\nAlice Boss,555,\nJane Doe,556,Alice Boss\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"diagram", path, "-f", "mermaid"})
	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))
	assert.Contains(t, out.String(), "Alice_Boss --> Jane_Doe")
}

func TestDiagramCommandSheetFlag(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Notes"}))
	_, err := f.NewSheet("Recall")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Recall", "A1", &[]any{"Name", "Phone", "Supervisor Phone", "Supervisor"}))
	require.NoError(t, f.SetSheetRow("Recall", "A2", &[]any{"Alice Boss", "555-0100"}))
	require.NoError(t, f.SetSheetRow("Recall", "A3", &[]any{"Jane Doe", "555-0101", "555-0100", "Alice Boss"}))
	path := filepath.Join(t.TempDir(), "recall.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	t.Cleanup(func() { sheetName = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"diagram", path, "-f", "mermaid", "--sheet", "Recall"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Alice_Boss --> Jane_Doe")
}
