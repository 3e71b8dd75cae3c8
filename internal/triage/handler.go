package triage

import (
	"log/slog"
	"net/http"

	"github.com/kcvinod/triage/pkg/handlers"
	"github.com/kcvinod/triage/pkg/routes"
)

// BatchRequest is the body of a batch triage request.
type BatchRequest struct {
	Documents []string `json:"documents"`
}

// Handler provides HTTP endpoints for triage operations.
type Handler struct {
	sys    System
	logger *slog.Logger
	cfg    Config
}

// NewHandler creates a Handler with the given system, logger, and limits.
// A batch body may carry up to MaxBatchSize documents of MaxBodySize each.
func NewHandler(sys System, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "triage"),
		cfg:    cfg,
	}
}

// Routes returns the route group definition for triage endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/triage",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Triage},
			{Method: "POST", Pattern: "/batch", Handler: h.Batch},
		},
	}
}

// Triage runs one triage over the raw request body.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.ReadBody(w, r, h.cfg.MaxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.StatusFor(err), err)
		return
	}

	out, err := h.sys.Triage(r.Context(), string(body))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, out)
}

// Batch runs triage over every document in a BatchRequest body.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := handlers.DecodeJSON(w, r, h.batchLimit(), &req); err != nil {
		handlers.RespondError(w, h.logger, handlers.StatusFor(err), err)
		return
	}

	outcomes, err := h.sys.TriageBatch(r.Context(), req.Documents)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcomes)
}

func (h *Handler) batchLimit() int64 {
	return h.cfg.MaxBodySize * int64(max(h.cfg.MaxBatchSize, 1))
}
