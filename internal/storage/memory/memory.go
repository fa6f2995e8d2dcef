// Package memory implements the thread repository on a mutex-guarded map.
// Each exported method is one atomic read-modify-write, mirroring the
// per-record atomicity of the production store. Used by unit tests and for
// embedded/demo runs.
package memory

import (
	"sync"
	"time"

	"github.com/arbor-dev/arbor/internal/domain"
	internal_errors "github.com/arbor-dev/arbor/internal/errors"
)

type Storage struct {
	mu      sync.Mutex
	threads map[domain.ThreadId]*domain.Thread
}

func New() *Storage {
	return &Storage{threads: make(map[domain.ThreadId]*domain.Thread)}
}

var errThreadNotFound = internal_errors.NotFound("Thread not found")

// copyThread returns a detached copy so callers never alias stored slices.
func copyThread(t *domain.Thread) domain.Thread {
	c := *t
	c.Children = append([]string{}, t.Children...)
	c.Upvotes = append([]string{}, t.Upvotes...)
	c.Downvotes = append([]string{}, t.Downvotes...)
	if t.ParentId != nil {
		parent := *t.ParentId
		c.ParentId = &parent
	}
	return c
}

func remove(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func add(set []string, id string) []string {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

// CreateThread inserts the thread, filling timestamps. Inserting an existing
// id is treated as an idempotent retry: the stored record is returned
// unchanged.
func (s *Storage) CreateThread(t *domain.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.threads[t.Id]; ok {
		*t = copyThread(existing)
		return nil
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.LastUpdated = now
	t.LastDirtied = now
	stored := copyThread(t)
	s.threads[t.Id] = &stored
	return nil
}

func (s *Storage) GetThread(id domain.ThreadId) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errThreadNotFound
	}
	return copyThread(t), nil
}

// GetThreads returns the threads that exist; missing ids are omitted.
func (s *Storage) GetThreads(ids []domain.ThreadId) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Thread, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.threads[id]; ok {
			result = append(result, copyThread(t))
		}
	}
	return result, nil
}

func (s *Storage) ChildrenOf(parents []domain.ThreadId) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parentSet := make(map[domain.ThreadId]bool, len(parents))
	for _, p := range parents {
		parentSet[p] = true
	}

	var result []domain.Thread
	for _, t := range s.threads {
		if t.ParentId != nil && parentSet[*t.ParentId] {
			result = append(result, copyThread(t))
		}
	}
	return result, nil
}

func (s *Storage) AppendChild(parent, child domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.threads[parent]
	if !ok {
		return errThreadNotFound
	}
	p.Children = add(p.Children, child)
	p.LastDirtied = time.Now().UTC()
	return nil
}

func (s *Storage) RemoveChild(parent, child domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.threads[parent]
	if !ok {
		return errThreadNotFound
	}
	p.Children = remove(p.Children, child)
	p.LastDirtied = time.Now().UTC()
	return nil
}

// ApplyVote moves voter between the vote sets and recomputes the score from
// the resulting cardinalities, all under one lock hold.
func (s *Storage) ApplyVote(id domain.ThreadId, voter domain.UserId, vote domain.Vote) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errThreadNotFound
	}

	t.Upvotes = remove(t.Upvotes, voter)
	t.Downvotes = remove(t.Downvotes, voter)
	switch vote {
	case domain.VoteUp:
		t.Upvotes = add(t.Upvotes, voter)
	case domain.VoteDown:
		t.Downvotes = add(t.Downvotes, voter)
	}
	t.Score = len(t.Upvotes) - len(t.Downvotes)

	now := time.Now().UTC()
	t.LastUpdated = now
	t.LastDirtied = now

	return copyThread(t), nil
}

func (s *Storage) UpdateContent(id domain.ThreadId, title, content *string) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errThreadNotFound
	}
	if t.Deleted {
		return domain.Thread{}, internal_errors.Validation("Thread is deleted")
	}

	if title != nil {
		t.Title = *title
	}
	if content != nil {
		t.Content = *content
	}
	now := time.Now().UTC()
	t.LastUpdated = now
	t.LastDirtied = now

	return copyThread(t), nil
}

// MarkDeleted tombstones the thread in place. Idempotent.
func (s *Storage) MarkDeleted(id domain.ThreadId, tombstone string) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errThreadNotFound
	}

	t.Title = tombstone
	t.Content = tombstone
	t.Deleted = true
	now := time.Now().UTC()
	t.LastUpdated = now
	t.LastDirtied = now

	return copyThread(t), nil
}

// DeleteThreads removes the given ids, returning how many existed.
func (s *Storage) DeleteThreads(ids []domain.ThreadId) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := s.threads[id]; ok {
			delete(s.threads, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Storage) TouchDirty(id domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return errThreadNotFound
	}
	t.LastDirtied = time.Now().UTC()
	return nil
}
