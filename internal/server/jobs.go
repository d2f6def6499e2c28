package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/runner"
)

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
)

// JobFile is one document's outcome within a batch job.
type JobFile struct {
	Name       string       `json:"name"`
	Session    string       `json:"session,omitempty"`
	Result     *export.Dump `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"duration_ms,omitempty"`
}

// Job is an asynchronous batch run over several uploaded documents.
type Job struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Files     []JobFile `json:"files"`
	Submitted time.Time `json:"submitted"`
	Completed time.Time `json:"completed,omitzero"`
}

// jobStore keeps jobs in memory for the server's lifetime.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (js *jobStore) put(job *Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[job.ID] = job
}

// get returns a copy so callers never race the worker goroutine.
func (js *jobStore) get(id string) (Job, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	job, ok := js.jobs[id]
	if !ok {
		return Job{}, false
	}
	snapshot := *job
	snapshot.Files = make([]JobFile, len(job.Files))
	copy(snapshot.Files, job.Files)
	return snapshot, true
}

func (js *jobStore) update(id string, fn func(*Job)) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if job, ok := js.jobs[id]; ok {
		fn(job)
	}
}

// batchHandler accepts several documents under the "documents" field and
// starts a background job over them. The response carries the job ID for
// polling on /jobs/{id}.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := int64(s.cfg.Server.MaxUploadMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, "parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["documents"]
	if len(headers) == 0 {
		s.writeError(w, "no documents provided", http.StatusBadRequest)
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	job := &Job{ID: id.String(), Status: JobPending, Submitted: time.Now().UTC()}
	var paths []string
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			s.writeError(w, "read upload: "+err.Error(), http.StatusBadRequest)
			removeFiles(paths)
			return
		}
		path, _, err := spoolUpload(file, header)
		_ = file.Close()
		if err != nil {
			s.writeError(w, err.Error(), http.StatusInternalServerError)
			removeFiles(paths)
			return
		}
		paths = append(paths, path)
		job.Files = append(job.Files, JobFile{Name: filepath.Base(header.Filename)})
	}

	s.jobs.put(job)
	go s.runJob(job.ID, paths)

	s.writeJSON(w, http.StatusAccepted, job)
}

// runJob processes the spooled documents sequentially and folds each
// outcome into the stored job.
func (s *Server) runJob(id string, paths []string) {
	activeJobs.Inc()
	defer activeJobs.Dec()
	defer removeFiles(paths)

	s.jobs.update(id, func(j *Job) { j.Status = JobRunning })

	for i, path := range paths {
		start := time.Now()
		file := JobFile{}
		run, err := s.newRunner(nil)
		if err == nil {
			var report *runner.Report
			if report, err = run.ProcessDocument(context.Background(), path); err == nil {
				observeReport("job", report)
				dump := export.BuildDump(report.Run)
				file.Session = report.Session.Name
				file.Result = &dump
			}
		}
		if err != nil {
			documentsProcessed.WithLabelValues("job", "error").Inc()
			file.Error = err.Error()
			slog.Warn("job file failed", "job", id, "path", path, "error", err)
		}
		file.DurationMs = time.Since(start).Milliseconds()

		s.jobs.update(id, func(j *Job) {
			file.Name = j.Files[i].Name
			j.Files[i] = file
		})
	}

	s.jobs.update(id, func(j *Job) {
		j.Status = JobCompleted
		j.Completed = time.Now().UTC()
	})
}

// jobHandler serves GET /jobs/{id}.
func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, ok := s.jobs.get(id)
	if !ok {
		s.writeError(w, "job not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func removeFiles(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}
