package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// ManifestHandler serves a manifest read-only
type ManifestHandler struct {
	reader interfaces.ManifestReader

	mu      sync.RWMutex
	current *model.Manifest
}

// NewManifestHandler creates a handler. Call Reload before serving.
func NewManifestHandler(reader interfaces.ManifestReader) *ManifestHandler {
	return &ManifestHandler{
		reader:  reader,
		current: model.NewManifest(),
	}
}

// Reload replaces the served manifest with a fresh read. On failure the
// previous manifest stays in place.
func (h *ManifestHandler) Reload(ctx context.Context) error {
	manifest, err := h.reader.ReadManifest(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.current = manifest
	h.mu.Unlock()

	ctxlog.From(ctx).Info("Loaded manifest", "releases", manifest.Len())
	return nil
}

func (h *ManifestHandler) manifest() *model.Manifest {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// List returns the whole manifest
func (h *ManifestHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.manifest())
}

// Get returns a single release by tag
func (h *ManifestHandler) Get(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	release, ok := h.manifest().Get(tag)
	if !ok {
		writeError(w, r, goerr.New("release not found", goerr.V("tag", tag)), http.StatusNotFound)
		return
	}

	writeJSON(w, r, http.StatusOK, release)
}

// Channel returns the releases of one channel in manifest order
func (h *ManifestHandler) Channel(w http.ResponseWriter, r *http.Request) {
	channel := strings.ToLower(chi.URLParam(r, "channel"))

	releases := []*model.FinalRelease{}
	for _, release := range h.manifest().All() {
		if release.Channel == channel {
			releases = append(releases, release)
		}
	}

	writeJSON(w, r, http.StatusOK, releases)
}

// HandleReload re-reads the manifest from its source
func (h *ManifestHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Reload(r.Context()); err != nil {
		ctxlog.From(r.Context()).Error("Failed to reload manifest", "error", err)
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]int{
		"releases": h.manifest().Len(),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
