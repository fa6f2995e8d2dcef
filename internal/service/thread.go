package service

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/arbor-dev/arbor/internal/domain"
	internal_errors "github.com/arbor-dev/arbor/internal/errors"
	"github.com/arbor-dev/arbor/internal/logger"
	"github.com/arbor-dev/arbor/internal/notify"
)

// ThreadStorage is the persistence boundary. Every mutating method maps to a
// single-record atomic write against the backing store; there are no
// cross-record transactions, so multi-step operations here are sequences of
// independent writes.
type ThreadStorage interface {
	CreateThread(t *domain.Thread) error
	GetThread(id domain.ThreadId) (domain.Thread, error)
	GetThreads(ids []domain.ThreadId) ([]domain.Thread, error)
	ChildrenOf(parents []domain.ThreadId) ([]domain.Thread, error)
	AppendChild(parent, child domain.ThreadId) error
	RemoveChild(parent, child domain.ThreadId) error
	ApplyVote(id domain.ThreadId, voter domain.UserId, vote domain.Vote) (domain.Thread, error)
	UpdateContent(id domain.ThreadId, title, content *string) (domain.Thread, error)
	MarkDeleted(id domain.ThreadId, tombstone string) (domain.Thread, error)
	DeleteThreads(ids []domain.ThreadId) (int, error)
	TouchDirty(id domain.ThreadId) error
}

type ThreadValidator interface {
	Title(title string) error
	Content(content string) error
}

type Thread struct {
	storage    ThreadStorage
	validator  ThreadValidator
	dirty      *DirtyPropagator
	dispatcher notify.Dispatcher
}

func NewThread(storage ThreadStorage, validator ThreadValidator, dirty *DirtyPropagator, dispatcher notify.Dispatcher) *Thread {
	return &Thread{storage, validator, dirty, dispatcher}
}

// Create persists a new root thread or reply. The parent must exist when
// given. Linking the new id into the parent's children list is a separate
// single-record write: if it fails after the insert succeeded, the node
// exists but is unreachable through the forward cache, which is logged and
// accepted (readers traverse the parent_id back-reference).
func (s *Thread) Create(creation domain.ThreadCreationData) (domain.Thread, error) {
	if err := s.validator.Title(creation.Title); err != nil {
		return domain.Thread{}, err
	}
	if err := s.validator.Content(creation.Content); err != nil {
		return domain.Thread{}, err
	}

	var parent *domain.Thread
	if creation.ParentId != nil && *creation.ParentId != "" {
		p, err := s.storage.GetThread(*creation.ParentId)
		if err != nil {
			if e, ok := err.(*internal_errors.ErrorWithStatusCode); ok && e.StatusCode == http.StatusNotFound {
				return domain.Thread{}, internal_errors.NotFound("Parent thread not found")
			}
			return domain.Thread{}, fmt.Errorf("failed to fetch parent thread: %w", err)
		}
		parent = &p
	}

	id := creation.Id
	if id == "" {
		id = uuid.NewString()
	}

	thread := domain.Thread{
		Id:        id,
		CreatorId: creation.CreatorId,
		ParentId:  creation.ParentId,
		Title:     creation.Title,
		Content:   creation.Content,
		Children:  []string{},
		Upvotes:   []string{},
		Downvotes: []string{},
	}
	if err := s.storage.CreateThread(&thread); err != nil {
		return domain.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}

	if parent != nil {
		// Also bumps the parent's last_dirtied, which doubles as the
		// one-hop dirty propagation for this mutation.
		if err := s.storage.AppendChild(parent.Id, thread.Id); err != nil {
			logger.Log.Error("thread created but not linked to parent",
				"op", "create", "thread", thread.Id, "parent", parent.Id, "error", err)
		}
		if parent.CreatorId != creation.CreatorId {
			notify.Dispatch(s.dispatcher, notify.Notification{
				Sender:    creation.CreatorId,
				Recipient: parent.CreatorId,
				Message:   "New reply to your thread",
				Kind:      notify.KindReply,
				Payload:   thread.Id,
			})
		}
	}

	return thread, nil
}

// Edit updates title and/or content. Creator only; tombstoned threads are
// immutable.
func (s *Thread) Edit(id domain.ThreadId, viewer domain.UserId, title, content *string) (domain.Thread, error) {
	if title == nil && content == nil {
		return domain.Thread{}, internal_errors.Validation("At least one of title or content must be provided")
	}
	if title != nil {
		if err := s.validator.Title(*title); err != nil {
			return domain.Thread{}, err
		}
	}
	if content != nil {
		if err := s.validator.Content(*content); err != nil {
			return domain.Thread{}, err
		}
	}

	thread, err := s.storage.GetThread(id)
	if err != nil {
		return domain.Thread{}, err
	}
	if thread.CreatorId != viewer {
		return domain.Thread{}, internal_errors.Forbidden("Only the creator can edit a thread")
	}
	if thread.Deleted {
		return domain.Thread{}, internal_errors.Validation("Thread is deleted")
	}

	updated, err := s.storage.UpdateContent(id, title, content)
	if err != nil {
		return domain.Thread{}, err
	}
	s.dirty.Propagate(updated)

	return updated, nil
}

// Delete removes a thread. Soft delete tombstones the node in place and is
// idempotent; hard delete removes the node and its whole subtree. Unlinking
// from the parent and deleting descendants are independent writes, so a
// crash in between can leave a dangling children entry; readers tolerate it.
func (s *Thread) Delete(id domain.ThreadId, viewer domain.UserId, mode domain.DeleteMode) (*domain.Thread, int, error) {
	if !mode.Valid() {
		return nil, 0, internal_errors.Validation("Unknown delete mode")
	}

	thread, err := s.storage.GetThread(id)
	if err != nil {
		return nil, 0, err
	}
	if thread.CreatorId != viewer {
		return nil, 0, internal_errors.Forbidden("Only the creator can delete a thread")
	}

	if mode == domain.SoftDelete {
		updated, err := s.storage.MarkDeleted(id, domain.Tombstone)
		if err != nil {
			return nil, 0, err
		}
		s.dirty.Propagate(updated)
		return &updated, 0, nil
	}

	descendants, err := expandSubtree(s.storage, thread.Id, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to collect subtree: %w", err)
	}
	ids := make([]domain.ThreadId, 0, len(descendants)+1)
	ids = append(ids, thread.Id)
	for _, d := range descendants {
		ids = append(ids, d.thread.Id)
	}

	if !thread.IsRoot() {
		// Also bumps the former parent's last_dirtied.
		if err := s.storage.RemoveChild(*thread.ParentId, thread.Id); err != nil {
			logger.Log.Error("failed to unlink deleted thread from parent",
				"op", "delete", "thread", thread.Id, "parent", *thread.ParentId, "error", err)
		}
	}

	removed, err := s.storage.DeleteThreads(ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to delete subtree of %s: %w", thread.Id, err)
	}
	if removed != len(ids) {
		logger.Log.Warn("subtree delete removed fewer records than collected",
			"op", "delete", "thread", thread.Id, "collected", len(ids), "removed", removed)
	}

	return nil, removed, nil
}
