package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"vthell-api/internal/jobs"
	"vthell-api/internal/storage"
	"vthell-api/pkg/models"
)

// ListJobs returns every job not named in the fetched query parameter
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.ListJobs(splitIDs(r.URL.Query().Get("fetched")))
	if err != nil {
		h.logger.Error("Failed to list jobs", "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	views := make([]jobView, 0, len(list))
	for _, job := range list {
		views = append(views, h.listView(job))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

// CreateJob resolves the submitted url and stores a new job
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	identifier := unquote(form.Get("url"))
	if identifier == "" {
		h.writeMessage(w, http.StatusBadRequest, "Please provide url")
		return
	}
	if !h.checkPasskey(w, form) {
		return
	}

	overwrite, _ := strconv.ParseBool(form.Get("overwrite"))

	job, err := h.jobs.CreateJob(r.Context(), identifier, form.Get("callback"), overwrite)
	if err != nil {
		h.writeJobError(w, err, "create", identifier)
		return
	}

	h.logger.Info("Job added", "id", job.ID, "start_time", int64(job.StartTime), "overwrite", overwrite)
	h.writeMessage(w, http.StatusOK, "Jobs added!")
}

// ReloadJob re-resolves the metadata of a pending job
func (h *Handlers) ReloadJob(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	identifier := unquote(form.Get("url"))
	if identifier == "" {
		h.writeMessage(w, http.StatusBadRequest, "Please provide url")
		return
	}
	if !h.checkPasskey(w, form) {
		return
	}

	job, err := h.jobs.ReloadJob(r.Context(), identifier)
	if err != nil {
		h.writeJobError(w, err, "reload", identifier)
		return
	}

	h.logger.Info("Job reloaded", "id", job.ID, "start_time", int64(job.StartTime))
	h.writeMessage(w, http.StatusOK, "Jobs reloaded!")
}

// DeleteJob removes a job by id. Deleting a missing job succeeds.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	id := form.Get("id")
	if id == "" {
		h.writeMessage(w, http.StatusBadRequest, "Please provide id")
		return
	}
	if !h.checkPasskey(w, form) {
		return
	}

	if err := h.jobs.DeleteJob(id); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			h.writeMessage(w, http.StatusBadRequest, "Invalid job id")
			return
		}
		h.logger.Error("Failed to delete job", "id", id, "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	h.logger.Info("Job deleted", "id", id)
	h.writeMessage(w, http.StatusOK, "Deleted from server!")
}

// writeJobError maps job service errors to status codes
func (h *Handlers) writeJobError(w http.ResponseWriter, err error, action, identifier string) {
	var resErr *jobs.ResolutionError
	switch {
	case errors.Is(err, jobs.ErrConflict):
		h.writeMessage(w, http.StatusConflict, "Job already exists, set overwrite to replace it")
	case errors.Is(err, jobs.ErrNotFound):
		h.writeMessage(w, http.StatusNotFound, "jobs not found, please use POST request")
	case errors.Is(err, jobs.ErrInvalidTransition):
		h.writeMessage(w, http.StatusForbidden, "cannot reload jobs, since it's currently being downloaded or already downloaded")
	case errors.As(err, &resErr):
		h.writeMessage(w, http.StatusForbidden, resErr.Err.Error())
	default:
		h.logger.Error("Failed to "+action+" job", "identifier", identifier, "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "Failed to "+action+" job")
	}
}

// JobStats returns the lifecycle flags of each requested job
func (h *Handlers) JobStats(w http.ResponseWriter, r *http.Request) {
	states, ok := h.lookupJobs(w, r)
	if !ok {
		return
	}

	data := make(map[string]any, len(states))
	for id, job := range states {
		if job == nil {
			data[id] = struct{}{}
			continue
		}
		data[id] = statsOf(job)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// JobStatus returns the detailed view of each requested job
func (h *Handlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	states, ok := h.lookupJobs(w, r)
	if !ok {
		return
	}

	data := make(map[string]any, len(states))
	for id, job := range states {
		if job == nil {
			data[id] = struct{}{}
			continue
		}
		data[id] = h.statusView(job)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *Handlers) lookupJobs(w http.ResponseWriter, r *http.Request) (map[string]*models.Job, bool) {
	states, err := h.jobs.JobStates(splitIDs(r.PathValue("ids")))
	if err != nil {
		h.logger.Error("Failed to look up jobs", "ids", r.PathValue("ids"), "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "Failed to look up jobs")
		return nil, false
	}
	return states, true
}
