package api

import "github.com/arbor-dev/arbor/internal/domain"

// Request DTOs

type CreateThreadRequest struct {
	Id       string  `json:"id,omitempty"` // client-suppliable for idempotent retries
	ParentId *string `json:"parent_id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Content  string  `json:"content" validate:"required"`
}

type EditThreadRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type VoteThreadRequest struct {
	Vote         string `json:"vote" validate:"required,oneof=upvote downvote clear"`
	PreviousVote string `json:"previous_vote,omitempty" validate:"omitempty,oneof=upvote downvote clear"`
}

// Response DTOs

type ThreadResponse struct {
	domain.Thread
}

type VoteThreadResponse struct {
	domain.Thread
	Viewer domain.VoteState `json:"viewer"`
}

type ThreadListResponse struct {
	Threads []domain.ThreadView `json:"threads"`
}

type ThreadTreeResponse struct {
	domain.ThreadTree
}

type DeleteThreadResponse struct {
	Deleted *domain.Thread `json:"deleted,omitempty"` // soft delete: the tombstoned node
	Removed int            `json:"removed"`           // hard delete: records removed
}
