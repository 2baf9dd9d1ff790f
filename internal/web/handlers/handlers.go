// Package handlers provides HTTP handlers for the JSON API
package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vthell-api/internal/archive"
	"vthell-api/internal/jobs"
	"vthell-api/internal/streamers"
	"vthell-api/pkg/models"
)

const maxFormBytes = 1 << 20

// Rebuilder rebuilds the archive index on demand
type Rebuilder interface {
	Rebuild(ctx context.Context) (*models.Snapshot, error)
}

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	jobs      *jobs.Service
	index     *archive.IndexStore
	rebuilder Rebuilder
	streamers *streamers.Directory
	passkey   string
	now       func() time.Time
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance. rebuilder may be nil when no
// archive feed is configured.
func NewHandlers(service *jobs.Service, index *archive.IndexStore, rebuilder Rebuilder, directory *streamers.Directory, passkey string) *Handlers {
	return &Handlers{
		jobs:      service,
		index:     index,
		rebuilder: rebuilder,
		streamers: directory,
		passkey:   strings.TrimSpace(passkey),
		now:       time.Now,
		logger:    slog.Default(),
	}
}

type message struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, message{Message: msg, StatusCode: status})
}

// checkPasskey writes the rejection and returns false unless the form carries
// the configured passkey
func (h *Handlers) checkPasskey(w http.ResponseWriter, form url.Values) bool {
	given := strings.TrimSpace(form.Get("passkey"))
	if given == "" {
		h.writeMessage(w, http.StatusForbidden, "Please provide password/passkey")
		return false
	}
	if h.passkey == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.passkey)) != 1 {
		h.writeMessage(w, http.StatusUnauthorized, "Unknown passkey/password")
		return false
	}
	return true
}

// readForm returns the submitted form fields. net/http only parses request
// bodies for POST, PUT and PATCH, so DELETE bodies are decoded here.
func readForm(r *http.Request) (url.Values, error) {
	if r.Method != http.MethodDelete {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil && err != http.ErrNotMultipart {
			return nil, err
		}
		return r.Form, nil
	}

	form := r.URL.Query()
	if r.Body == nil {
		return form, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	for key, vs := range values {
		form[key] = append(vs, form[key]...)
	}
	return form, nil
}

// unquote decodes percent escapes clients leave in the url field
func unquote(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// splitIDs parses a comma separated id list, dropping empty items
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Ping answers health checks
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", "2")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, "OK")
	}
}

// Home returns the server time in milliseconds
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]float64{
		"utc": float64(h.now().UTC().UnixNano()) / float64(time.Millisecond),
	})
}

// Echo answers with a plain OK
func (h *Handlers) Echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}
