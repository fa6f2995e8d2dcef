package handler

import (
	"encoding/json"
	"net/http"

	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/logger"
)

// ThreadService owns the mutating thread operations.
type ThreadService interface {
	Create(creation domain.ThreadCreationData) (domain.Thread, error)
	Edit(id domain.ThreadId, viewer domain.UserId, title, content *string) (domain.Thread, error)
	Vote(id domain.ThreadId, viewer domain.UserId, newVote, previousVote domain.Vote) (domain.Thread, error)
	Delete(id domain.ThreadId, viewer domain.UserId, mode domain.DeleteMode) (*domain.Thread, int, error)
}

// ThreadFetcher owns the read-side views.
type ThreadFetcher interface {
	GetTree(rootId domain.ThreadId, maxDepth int, viewer domain.UserId) (domain.ThreadTree, error)
	GetThreads(ids []domain.ThreadId, viewer domain.UserId) ([]domain.ThreadView, error)
}

type Handler struct {
	thread  ThreadService
	fetcher ThreadFetcher
}

func New(thread ThreadService, fetcher ThreadFetcher) *Handler {
	return &Handler{thread, fetcher}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
