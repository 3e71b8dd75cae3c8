package kb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kcvinod/triage/pkg/handlers"
	"github.com/kcvinod/triage/pkg/routes"
)

const maxArticleSize = 64 << 10

// ErrReadOnly indicates the configured knowledge base does not accept articles.
var ErrReadOnly = errors.New("knowledge base is read-only")

// Indexer is a knowledge base that accepts new articles.
type Indexer interface {
	Add(ctx context.Context, a Article) error
}

// Handler exposes knowledge base search and indexing over HTTP.
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewHandler creates a Handler over s. Article indexing is available only
// when s also implements Indexer.
func NewHandler(s Searcher, logger *slog.Logger) *Handler {
	return &Handler{
		searcher: s,
		logger:   logger.With("handler", "kb"),
	}
}

// Routes returns the route group definition for knowledge base endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/kb",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/articles", Handler: h.Add},
		},
	}
}

// Search ranks articles against the intent and summary query parameters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := Query{
		Intent:  r.URL.Query().Get("intent"),
		Summary: r.URL.Query().Get("summary"),
	}

	results, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []Result{}
	}

	handlers.RespondJSON(w, http.StatusOK, results)
}

// Add indexes the Article in the request body.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.searcher.(Indexer)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusMethodNotAllowed, ErrReadOnly)
		return
	}

	var a Article
	if err := handlers.DecodeJSON(w, r, maxArticleSize, &a); err != nil {
		handlers.RespondError(w, h.logger, handlers.StatusFor(err), err)
		return
	}

	if err := idx.Add(r.Context(), a); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidArticle) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}
