package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/jobs"
)

// maxExecuteBody caps the execute request body. A batch request is a
// list of product names, so anything near this size is garbage.
const maxExecuteBody = 1 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeException(w http.ResponseWriter, status int, code, format string, args ...any) {
	s.writeJSON(w, status, exception{Code: code, Description: fmt.Sprintf(format, args...)})
}

func (s *Server) handleLandingPage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, landingPage{
		Title:       "NetCDF on-demand",
		Description: "Downloads Copernicus Sentinel products and serves them as NetCDF through OPeNDAP",
		Links: []link{
			{Href: "/", Rel: "self", Type: contentTypeJSON, Title: "this document"},
			{Href: "/openapi", Rel: "service-desc", Type: contentTypeOpenAPI, Title: "API definition"},
			{Href: "/conformance", Rel: "http://www.opengis.net/def/rel/ogc/1.0/conformance", Type: contentTypeJSON, Title: "conformance declaration"},
			{Href: "/processes", Rel: "http://www.opengis.net/def/rel/ogc/1.0/processes", Type: contentTypeJSON, Title: "processes offered"},
			{Href: "/jobs", Rel: "http://www.opengis.net/def/rel/ogc/1.0/job-list", Type: contentTypeJSON, Title: "job monitor"},
		},
	})
}

func (s *Server) handleConformance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, conformanceDeclaration{
		ConformsTo: []string{
			"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/core",
			"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/json",
			"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/oas30",
			"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/job-list",
			"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/dismiss",
		},
	})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	s.openapiMu.RLock()
	doc := s.openapiDoc
	s.openapiMu.RUnlock()

	if len(doc) == 0 {
		s.writeException(w, http.StatusServiceUnavailable, codeServerError, "the OpenAPI document is not available")
		return
	}

	w.Header().Set("Content-Type", contentTypeOpenAPI)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleProcessList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, processList{
		Processes: []processSummary{safeToNetCDFProcess().processSummary},
		Links:     []link{{Href: "/processes", Rel: "self", Type: contentTypeJSON}},
	})
}

func (s *Server) handleProcessDescription(w http.ResponseWriter, r *http.Request) {
	processID := r.PathValue("processID")
	if processID != jobs.ProcessSafeToNetCDF {
		s.writeException(w, http.StatusNotFound, codeNoSuchProcess, "no process with id %s", processID)
		return
	}
	s.writeJSON(w, http.StatusOK, safeToNetCDFProcess())
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	processID := r.PathValue("processID")
	if processID != jobs.ProcessSafeToNetCDF {
		s.writeException(w, http.StatusNotFound, codeNoSuchProcess, "no process with id %s", processID)
		return
	}

	var req executeRequest
	body := http.MaxBytesReader(w, r.Body, maxExecuteBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeException(w, http.StatusBadRequest, codeInvalidParameter, "invalid execute request: %v", err)
		return
	}

	if len(req.Inputs.ProductNames) == 0 {
		s.writeException(w, http.StatusBadRequest, codeMissingParameter, "Cannot process without a product name")
		return
	}

	if wantsAsync(r, req.Mode) {
		s.executeAsync(w, r, req)
		return
	}
	s.executeSync(w, r, req)
}

// wantsAsync reports whether the client asked for asynchronous
// execution, either through the standard Prefer header or the mode
// field of the request body.
func wantsAsync(r *http.Request, mode string) bool {
	if strings.EqualFold(mode, "async") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Prefer")), "respond-async")
}

func (s *Server) executeAsync(w http.ResponseWriter, r *http.Request, req executeRequest) {
	job := &jobs.Job{
		ProcessID: jobs.ProcessSafeToNetCDF,
		Products:  req.Inputs.ProductNames,
		Email:     req.Inputs.Email,
	}

	if err := s.runner.Submit(r.Context(), job); err != nil {
		s.logger.Error("job submission rejected",
			"products", len(job.Products),
			"error", err,
		)
		s.writeException(w, http.StatusServiceUnavailable, codeServerError, "could not accept the job: %v", err)
		return
	}

	w.Header().Set("Location", "/jobs/"+job.ID)
	w.Header().Set("Preference-Applied", "respond-async")
	s.writeJSON(w, http.StatusCreated, newStatusInfo(job))
}

// executeSync runs the batch on the request goroutine. The run is
// recorded in the job registry like any other, so a sync request shows
// up under /jobs and survives for the retention window.
func (s *Server) executeSync(w http.ResponseWriter, r *http.Request, req executeRequest) {
	ctx := r.Context()

	job := &jobs.Job{
		ID:        uuid.NewString(),
		ProcessID: jobs.ProcessSafeToNetCDF,
		Status:    jobs.StatusAccepted,
		Products:  req.Inputs.ProductNames,
		Email:     req.Inputs.Email,
	}

	if err := s.store.Create(ctx, job); err != nil {
		s.logger.Error("cannot record sync job", "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not record the request: %v", err)
		return
	}
	s.collector.RecordJobSubmitted(job.ProcessID)

	// Registry writes below use a detached context so a client that
	// disconnects mid-batch still leaves a complete record.
	storeCtx := context.WithoutCancel(ctx)

	if err := s.store.UpdateStatus(storeCtx, job.ID, jobs.StatusRunning, ""); err != nil {
		s.logger.Error("cannot mark sync job running", "job_id", job.ID, "error", err)
	}

	s.logger.Info("sync execution started",
		"job_id", job.ID,
		"products", len(job.Products),
	)
	start := time.Now()

	links, failures, err := s.execute(ctx, job)
	duration := time.Since(start)

	if err != nil {
		if setErr := s.store.SetResult(storeCtx, job.ID, jobs.StatusFailed, links, failures, err.Error()); setErr != nil {
			s.logger.Error("cannot record sync job failure", "job_id", job.ID, "error", setErr)
		}
		s.collector.RecordJobFinished(job.ProcessID, "failed", duration)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "execution failed: %v", err)
		return
	}

	message := fmt.Sprintf("served %d products, %d failed", len(links), len(failures))
	if setErr := s.store.SetResult(storeCtx, job.ID, jobs.StatusSuccessful, links, failures, message); setErr != nil {
		s.logger.Error("cannot record sync job result", "job_id", job.ID, "error", setErr)
	}
	s.collector.RecordJobFinished(job.ProcessID, "successful", duration)
	s.logger.Info("sync execution finished",
		"job_id", job.ID,
		"duration", duration,
		"links", len(links),
		"failures", len(failures),
	)

	job.Links, job.Failures = links, failures
	s.writeJSON(w, http.StatusOK, newResultDocument(job))
}

func (s *Server) handleJobList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeException(w, http.StatusBadRequest, codeInvalidParameter, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("cannot list jobs", "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not list jobs")
		return
	}

	infos := make([]statusInfo, 0, len(list))
	for _, job := range list {
		infos = append(infos, newStatusInfo(job))
	}
	s.writeJSON(w, http.StatusOK, jobList{
		Jobs:  infos,
		Links: []link{{Href: "/jobs", Rel: "self", Type: contentTypeJSON}},
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := s.store.Get(r.Context(), jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		s.writeException(w, http.StatusNotFound, codeNoSuchJob, "no job with id %s", jobID)
		return
	}
	if err != nil {
		s.logger.Error("cannot load job", "job_id", jobID, "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not load job %s", jobID)
		return
	}

	s.writeJSON(w, http.StatusOK, newStatusInfo(job))
}

func (s *Server) handleJobResults(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := s.store.Get(r.Context(), jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		s.writeException(w, http.StatusNotFound, codeNoSuchJob, "no job with id %s", jobID)
		return
	}
	if err != nil {
		s.logger.Error("cannot load job", "job_id", jobID, "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not load job %s", jobID)
		return
	}

	switch job.Status {
	case jobs.StatusSuccessful:
		s.writeJSON(w, http.StatusOK, newResultDocument(job))
	case jobs.StatusFailed:
		description := job.Message
		if description == "" {
			description = "execution failed"
		}
		s.writeException(w, http.StatusInternalServerError, codeServerError, "%s", description)
	case jobs.StatusDismissed:
		s.writeException(w, http.StatusGone, codeJobDismissed, "job %s was dismissed", jobID)
	default:
		s.writeException(w, http.StatusNotFound, codeResultNotReady, "job %s is still %s", jobID, job.Status)
	}
}

func (s *Server) handleJobDismiss(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	err := s.store.Dismiss(r.Context(), jobID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		s.writeException(w, http.StatusNotFound, codeNoSuchJob, "no job with id %s", jobID)
		return
	case errors.Is(err, jobs.ErrTerminal):
		s.writeException(w, http.StatusGone, codeJobFinished, "job %s has already finished and cannot be dismissed", jobID)
		return
	case err != nil:
		s.logger.Error("cannot dismiss job", "job_id", jobID, "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not dismiss job %s", jobID)
		return
	}

	s.logger.Info("job dismissed", "job_id", jobID)

	job, err := s.store.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Error("cannot load dismissed job", "job_id", jobID, "error", err)
		s.writeException(w, http.StatusInternalServerError, codeServerError, "could not load job %s", jobID)
		return
	}
	s.writeJSON(w, http.StatusOK, newStatusInfo(job))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeException(w, http.StatusNotFound, codeNotFound, "no resource at %s", r.URL.Path)
}
