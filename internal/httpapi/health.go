package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"readest-ai-core/internal/contextutil"
	"readest-ai-core/internal/embedding"
)

// HealthHandler reports whether the embedding provider backing every
// book's index build is reachable. The store registry itself has no
// remote dependency to probe: SQLite files open lazily per book, so
// there is nothing to check until a bookHash is known.
type HealthHandler struct {
	provider           embedding.Provider
	healthCheckTimeout time.Duration
}

// NewHealthHandler builds a HealthHandler over provider.
func NewHealthHandler(provider embedding.Provider) *HealthHandler {
	return &HealthHandler{provider: provider, healthCheckTimeout: 5 * time.Second}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if h.checkEmbeddingProvider(checkCtx, logger) {
		checks["embedding_provider"] = "ok"
	} else {
		checks["embedding_provider"] = "error"
		issues = append(issues, "embedding_provider_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

func (h *HealthHandler) checkEmbeddingProvider(ctx context.Context, logger *slog.Logger) bool {
	if _, err := h.provider.Embed(ctx, "health check probe"); err != nil {
		logger.WarnContext(ctx, "embedding provider health check failed", "error", err)
		return false
	}
	return true
}
