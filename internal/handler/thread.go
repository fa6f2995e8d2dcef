package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arbor-dev/arbor/internal/api"
	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/middleware"
	"github.com/arbor-dev/arbor/internal/utils"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewerFromContext(r)
	if viewer == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.thread.Create(domain.ThreadCreationData{
		Id:        body.Id,
		CreatorId: viewer,
		ParentId:  body.ParentId,
		Title:     body.Title,
		Content:   body.Content,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.ThreadResponse{Thread: thread})
}

func (h *Handler) GetThreads(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		http.Error(w, "ids query parameter is required", http.StatusBadRequest)
		return
	}
	var ids []domain.ThreadId
	for _, id := range strings.Split(idsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	threads, err := h.fetcher.GetThreads(ids, middleware.GetViewerFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.ThreadListResponse{Threads: threads})
}

func (h *Handler) GetThreadTree(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")

	// max_depth absent or <= 0 means unbounded
	maxDepth := 0
	if depthStr := r.URL.Query().Get("max_depth"); depthStr != "" {
		parsed, err := strconv.Atoi(depthStr)
		if err != nil {
			http.Error(w, "max_depth must be an integer", http.StatusBadRequest)
			return
		}
		maxDepth = parsed
	}

	tree, err := h.fetcher.GetTree(threadId, maxDepth, middleware.GetViewerFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.ThreadTreeResponse{ThreadTree: tree})
}

func (h *Handler) VoteThread(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewerFromContext(r)
	if viewer == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	threadId := chi.URLParam(r, "thread")

	var body api.VoteThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	previous := domain.Vote(body.PreviousVote)
	if body.PreviousVote == "" {
		previous = domain.VoteClear
	}

	thread, err := h.thread.Vote(threadId, viewer, domain.Vote(body.Vote), previous)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.VoteThreadResponse{
		Thread: thread,
		Viewer: domain.VoteState{
			IsUpvoted:   domain.HasVoted(thread.Upvotes, viewer),
			IsDownvoted: domain.HasVoted(thread.Downvotes, viewer),
		},
	})
}

func (h *Handler) EditThread(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewerFromContext(r)
	if viewer == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	threadId := chi.URLParam(r, "thread")

	var body api.EditThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.thread.Edit(threadId, viewer, body.Title, body.Content)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.ThreadResponse{Thread: thread})
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewerFromContext(r)
	if viewer == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	threadId := chi.URLParam(r, "thread")

	mode := domain.DeleteMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.SoftDelete
	}

	deleted, removed, err := h.thread.Delete(threadId, viewer, mode)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.DeleteThreadResponse{Deleted: deleted, Removed: removed})
}
