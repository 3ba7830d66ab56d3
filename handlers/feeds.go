package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"studio/feeds"
)

// FeedHandler serves the external data feeds. Fetch failures come back as
// 200 with degraded set; only an unconfigured feed is an error.
type FeedHandler struct {
	feeds  *feeds.Service
	logger *zap.Logger
}

func NewFeedHandler(svc *feeds.Service, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feeds: svc, logger: logger}
}

// Feed returns a handler for the named feed.
func (h *FeedHandler) Feed(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(r.Context(), w, name, func(ctx context.Context) (interface{}, error) {
			return h.feeds.Load(ctx, name)
		})
	}
}

func (h *FeedHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.respond(r.Context(), w, "overview", func(ctx context.Context) (interface{}, error) {
		return h.feeds.Overview(ctx)
	})
}

func (h *FeedHandler) respond(ctx context.Context, w http.ResponseWriter, name string, load func(context.Context) (interface{}, error)) {
	res, err := load(ctx)
	switch {
	case errors.Is(err, feeds.ErrFeedNotConfigured):
		writeError(w, http.StatusNotFound, name+" feed is not configured")
	case err != nil:
		h.logger.Error("feed request failed", zap.String("feed", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
