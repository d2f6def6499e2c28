package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/version"
)

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// processHandler runs one uploaded document synchronously and returns the
// structured dump. The session with the exported artifacts stays on disk.
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path, cleanup, err := s.saveUpload(w, r, "document")
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	run, err := s.newRunner(nil)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	report, err := run.ProcessDocument(r.Context(), path)
	if err != nil {
		documentsProcessed.WithLabelValues("http", "error").Inc()
		s.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	observeReport("http", report)

	dump := export.BuildDump(report.Run)
	s.writeJSON(w, http.StatusOK, ProcessResponse{
		Success:            true,
		Session:            report.Session.Name,
		Result:             &dump,
		ZeroDetectionPages: report.ZeroDetectionPages,
		DurationMs:         time.Since(start).Milliseconds(),
	})
}

// sessionsHandler lists sessions on GET and prunes them on DELETE. The
// DELETE form takes ?keep=N, defaulting to the configured retention.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSessions(w)
	case http.MethodDelete:
		s.pruneSessions(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listSessions(w http.ResponseWriter) {
	infos, err := s.sessions.List()
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := SessionsResponse{Sessions: make([]SessionInfo, 0, len(infos)), Count: len(infos)}
	for _, info := range infos {
		resp.Sessions = append(resp.Sessions, SessionInfo{
			Name:    info.Name,
			Path:    info.Path,
			ModTime: info.ModTime.UTC().Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pruneSessions(w http.ResponseWriter, r *http.Request) {
	keep := s.cfg.Retention
	if raw := r.URL.Query().Get("keep"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Sprintf("invalid keep value %q", raw), http.StatusBadRequest)
			return
		}
		keep = n
	}

	removed, err := s.sessions.EnforceRetention(keep)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	s.writeJSON(w, http.StatusOK, PruneResponse{Removed: removed, Kept: keep})
}

// saveUpload stores the named multipart file in a temp file whose extension
// matches the upload, so downstream format sniffing keeps working. The
// returned cleanup removes the file.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, field string) (string, func(), error) {
	limit := int64(s.cfg.Server.MaxUploadMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return "", nil, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("no %s file provided", field)
	}
	defer func() { _ = file.Close() }()

	return spoolUpload(file, header)
}

// spoolUpload writes one multipart part to a temp file.
func spoolUpload(file multipart.File, header *multipart.FileHeader) (string, func(), error) {
	ext := filepath.Ext(header.Filename)
	tmp, err := os.CreateTemp("", "textsift-upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}

	n, err := io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	uploadSizeBytes.Observe(float64(n))

	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, status int) {
	s.writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}
