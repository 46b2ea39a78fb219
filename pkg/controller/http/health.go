package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
)

// Health handles health check requests
func (h *ManifestHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:   "healthy",
		Service:  "brave-versions",
		Version:  types.Version,
		Releases: h.manifest().Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
	}
}
