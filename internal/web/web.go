package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rostercal/internal/config"
	"rostercal/internal/diagram"
	"rostercal/internal/ics"
	appLog "rostercal/internal/log"
	"rostercal/internal/mapping"
	"rostercal/internal/model"
	"rostercal/internal/sheet"
	"rostercal/internal/workset"
)

const (
	maxUploadBytes   = 32 << 20
	maxJSONBodyBytes = 1 << 20
)

// Server exposes the working set and its sources over HTTP.
type Server struct {
	cfg   *config.Config
	state *workset.State
	mux   *http.ServeMux
	now   func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, state *workset.State) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:   cfg,
		state: state,
		mux:   http.NewServeMux(),
		now:   time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuth.Enabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="rostercal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, state *workset.State) error {
	s := NewServer(cfg, state)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.Metrics {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}

	s.mux.HandleFunc("GET /api/files", s.handleListFiles)
	s.mux.HandleFunc("POST /api/files", s.handleUploadFile)
	s.mux.HandleFunc("DELETE /api/files/{name}", s.handleRemoveFile)

	s.mux.HandleFunc("GET /api/manual", s.handleListManual)
	s.mux.HandleFunc("POST /api/manual", s.handleAddManual)
	s.mux.HandleFunc("DELETE /api/manual/{id}", s.handleDeleteManual)

	s.mux.HandleFunc("GET /api/records", s.handleRecords)
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/people", s.handlePeople)

	s.mux.HandleFunc("POST /api/diagram", s.handleDiagram)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExportICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// fileSummary is an uploaded file without its records.
type fileSummary struct {
	Name            string               `json:"name"`
	RecordCount     int                  `json:"recordCount"`
	OriginalColumns []string             `json:"originalColumns"`
	UploadedAt      time.Time            `json:"uploadedAt"`
	Mapping         *model.ColumnMapping `json:"mapping,omitempty"`
}

func summarize(f model.UploadedFile) fileSummary {
	return fileSummary{
		Name:            f.Name,
		RecordCount:     f.RecordCount,
		OriginalColumns: f.OriginalColumns,
		UploadedAt:      f.UploadedAt,
	}
}

func (s *Server) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	files := s.state.Files()
	out := make([]fileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, summarize(f))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/files
//
// Accepts either multipart/form-data with a "file" part, or a raw body with
// the file name in ?name=.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	name, body, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	tbl, err := sheet.Read(name, body, sheet.WithICSWindow(s.window()))
	if err != nil {
		appLog.Error("upload decode failed", err, "name", name)
		writeError(w, decodeStatus(err), err.Error())
		return
	}

	f, err := s.state.UploadFile(name, tbl.Columns, tbl.Rows)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := summarize(f)
	if len(tbl.Rows) > 0 {
		m := mapping.Detect(tbl.Rows[0])
		resp.Mapping = &m
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	if err := s.state.RemoveFile(r.PathValue("name")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListManual(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Manual())
}

func (s *Server) handleAddManual(w http.ResponseWriter, r *http.Request) {
	var in workset.ManualInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.state.AddManualEvent(in)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteManual(w http.ResponseWriter, r *http.Request) {
	if err := s.state.DeleteManualEvent(r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/records?person=Jane+Doe&type=event
//   - person: filter to one person's view (unnamed records always included)
//   - type:   "event" or "general"; omitted returns both
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	person := q.Get("person")

	var recs []model.ClassifiedRecord
	switch q.Get("type") {
	case "":
		recs = s.state.Records(person)
	case model.ItemEvent:
		recs = s.state.Events(person)
	case model.ItemGeneral:
		recs = s.state.GeneralItems(person)
	default:
		writeError(w, http.StatusBadRequest, "type must be event or general")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Categories(r.URL.Query().Get("person")))
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.People(r.URL.Query().Get("q")))
}

// POST /api/diagram[?format=mermaid]
//
// Builds the org chart from an uploaded recall roster. The roster is not
// stored.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	name, body, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	tbl, err := sheet.Read(name, body)
	if err != nil {
		writeError(w, decodeStatus(err), err.Error())
		return
	}

	g := diagram.Build(diagram.FromRows(tbl.Rows))
	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, g.Mermaid())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	out := ics.Export(s.state.Events(r.URL.Query().Get("person")), s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rostercal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func (s *Server) window() ics.ExpandConfig {
	return ics.Window(s.now(), s.cfg.BackfillDays, s.cfg.HorizonDays, s.cfg.Location())
}

func readUpload(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", nil, errors.Wrap(err, "invalid multipart body")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.Wrap(err, "missing file part")
		}
		if err := checkFileName(hdr.Filename); err != nil {
			_ = f.Close()
			return "", nil, err
		}
		return hdr.Filename, f, nil
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		return "", nil, errors.New("missing ?name= for raw upload")
	}
	if err := checkFileName(name); err != nil {
		return "", nil, err
	}
	return name, r.Body, nil
}

// checkFileName rejects names that DELETE /api/files/{name} could not address.
func checkFileName(name string) error {
	if strings.ContainsAny(name, `/\`) {
		return errors.Errorf("file name %q must not contain a path separator", name)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workset.ErrFileNotFound),
		errors.Is(err, workset.ErrManualEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, workset.ErrEmptyFileName),
		errors.Is(err, workset.ErrInvalidManualEvent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeStatus maps a sheet.Read failure. Anything the decoder rejects is
// the client's file.
func decodeStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
