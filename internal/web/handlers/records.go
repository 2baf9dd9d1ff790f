package handlers

import (
	"errors"
	"net/http"

	"vthell-api/internal/archive"

	"github.com/dustin/go-humanize"
)

// emptyRecords is served when no archive index can be read
type emptyRecords struct {
	Data       []any `json:"data"`
	LastUpdate int64 `json:"last_update"`
	TotalSize  int64 `json:"total_size"`
}

var noRecords = emptyRecords{Data: []any{}, LastUpdate: -1, TotalSize: -1}

// Records returns the stored archive index snapshot
func (h *Handlers) Records(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.index.Load()
	if err != nil {
		h.logger.Error("Failed to load archive index", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, noRecords)
		return
	}
	if snapshot == nil {
		h.writeJSON(w, http.StatusNotFound, noRecords)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// RebuildRecords rebuilds the archive index from the remote listing
func (h *Handlers) RebuildRecords(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	if !h.checkPasskey(w, form) {
		return
	}
	if h.rebuilder == nil {
		h.writeMessage(w, http.StatusServiceUnavailable, archive.ErrNoFeed.Error())
		return
	}

	snapshot, err := h.rebuilder.Rebuild(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, archive.ErrRebuildInProgress):
		h.writeMessage(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, archive.ErrNoFeed):
		h.writeMessage(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		h.logger.Error("Failed to rebuild archive index", "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "Failed to rebuild archive index: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Archive index rebuilt",
		"status_code":  http.StatusOK,
		"last_updated": snapshot.LastUpdated,
		"total_size":   snapshot.TotalSize,
		"total_human":  humanize.Bytes(uint64(snapshot.TotalSize)),
	})
}
