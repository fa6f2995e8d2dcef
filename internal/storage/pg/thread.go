package pg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/arbor-dev/arbor/internal/domain"
	internal_errors "github.com/arbor-dev/arbor/internal/errors"
)

// Every mutating statement below touches exactly one row; per-row atomicity
// in Postgres is the single-record conditional update the engine relies on.
// There are deliberately no multi-statement transactions across records.

const threadColumns = `id, creator_id, parent_id, title, content, children, upvotes, downvotes, score, created_at, last_updated, last_dirtied, deleted`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var t domain.Thread
	var parentId sql.NullString
	err := row.Scan(
		&t.Id, &t.CreatorId, &parentId, &t.Title, &t.Content,
		&t.Children, &t.Upvotes, &t.Downvotes, &t.Score,
		&t.CreatedAt, &t.LastUpdated, &t.LastDirtied, &t.Deleted,
	)
	if err != nil {
		return domain.Thread{}, err
	}
	if parentId.Valid {
		t.ParentId = &parentId.String
	}
	return t, nil
}

// CreateThread inserts the thread, filling server-assigned timestamps.
// Re-inserting an existing id is an idempotent retry: the stored record is
// returned unchanged.
func (s *Storage) CreateThread(t *domain.Thread) error {
	var parentId sql.NullString
	if t.ParentId != nil && *t.ParentId != "" {
		parentId = sql.NullString{String: *t.ParentId, Valid: true}
	}

	err := s.db.QueryRow(`
        INSERT INTO threads (id, creator_id, parent_id, title, content)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO NOTHING
        RETURNING created_at, last_updated, last_dirtied
    `, t.Id, t.CreatorId, parentId, t.Title, t.Content).Scan(&t.CreatedAt, &t.LastUpdated, &t.LastDirtied)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to insert thread: %w", err)
	}

	// Conflict on id: return the existing record for idempotent retries.
	existing, err := s.GetThread(t.Id)
	if err != nil {
		return fmt.Errorf("failed to fetch thread after id conflict: %w", err)
	}
	*t = existing
	return nil
}

func (s *Storage) GetThread(id domain.ThreadId) (domain.Thread, error) {
	t, err := scanThread(s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM threads WHERE id = $1", threadColumns), id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// GetThreads returns the threads that exist; missing ids are omitted so
// callers tolerate dangling references.
func (s *Storage) GetThreads(ids []domain.ThreadId) ([]domain.Thread, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM threads WHERE id = ANY($1)", threadColumns),
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}
	defer rows.Close()

	return collectThreads(rows)
}

// ChildrenOf returns every thread whose parent_id is in the given frontier.
// This is the back-reference query subtree traversal is built on.
func (s *Storage) ChildrenOf(parents []domain.ThreadId) ([]domain.Thread, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM threads WHERE parent_id = ANY($1)", threadColumns),
		pq.Array(parents),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch children: %w", err)
	}
	defer rows.Close()

	return collectThreads(rows)
}

func collectThreads(rows *sql.Rows) ([]domain.Thread, error) {
	threads := make([]domain.Thread, 0)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return threads, nil
}

// AppendChild adds child to the parent's adjacency cache and bumps the
// parent's dirty marker in the same single-row write. Idempotent.
func (s *Storage) AppendChild(parent, child domain.ThreadId) error {
	result, err := s.db.Exec(`
        UPDATE threads SET
            children = CASE WHEN $2 = ANY(children) THEN children ELSE array_append(children, $2) END,
            last_dirtied = NOW()
        WHERE id = $1
    `, parent, child)
	if err != nil {
		return fmt.Errorf("failed to link child %s to %s: %w", child, parent, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}

func (s *Storage) RemoveChild(parent, child domain.ThreadId) error {
	result, err := s.db.Exec(`
        UPDATE threads SET
            children = array_remove(children, $2),
            last_dirtied = NOW()
        WHERE id = $1
    `, parent, child)
	if err != nil {
		return fmt.Errorf("failed to unlink child %s from %s: %w", child, parent, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}

// ApplyVote moves the voter between the vote sets and recomputes the score
// from the resulting cardinalities, all in one conditional update so
// set membership and score can never be observed apart.
func (s *Storage) ApplyVote(id domain.ThreadId, voter domain.UserId, vote domain.Vote) (domain.Thread, error) {
	var query string
	switch vote {
	case domain.VoteUp:
		query = `
        UPDATE threads SET
            upvotes      = CASE WHEN $2 = ANY(upvotes) THEN upvotes ELSE array_append(upvotes, $2) END,
            downvotes    = array_remove(downvotes, $2),
            score        = cardinality(CASE WHEN $2 = ANY(upvotes) THEN upvotes ELSE array_append(upvotes, $2) END)
                         - cardinality(array_remove(downvotes, $2)),
            last_updated = NOW(),
            last_dirtied = NOW()
        WHERE id = $1
        RETURNING ` + threadColumns
	case domain.VoteDown:
		query = `
        UPDATE threads SET
            upvotes      = array_remove(upvotes, $2),
            downvotes    = CASE WHEN $2 = ANY(downvotes) THEN downvotes ELSE array_append(downvotes, $2) END,
            score        = cardinality(array_remove(upvotes, $2))
                         - cardinality(CASE WHEN $2 = ANY(downvotes) THEN downvotes ELSE array_append(downvotes, $2) END),
            last_updated = NOW(),
            last_dirtied = NOW()
        WHERE id = $1
        RETURNING ` + threadColumns
	default: // clear
		query = `
        UPDATE threads SET
            upvotes      = array_remove(upvotes, $2),
            downvotes    = array_remove(downvotes, $2),
            score        = cardinality(array_remove(upvotes, $2)) - cardinality(array_remove(downvotes, $2)),
            last_updated = NOW(),
            last_dirtied = NOW()
        WHERE id = $1
        RETURNING ` + threadColumns
	}

	t, err := scanThread(s.db.QueryRow(query, id, voter))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to apply vote: %w", err)
	}
	return t, nil
}

func (s *Storage) UpdateContent(id domain.ThreadId, title, content *string) (domain.Thread, error) {
	var newTitle, newContent sql.NullString
	if title != nil {
		newTitle = sql.NullString{String: *title, Valid: true}
	}
	if content != nil {
		newContent = sql.NullString{String: *content, Valid: true}
	}

	t, err := scanThread(s.db.QueryRow(`
        UPDATE threads SET
            title        = COALESCE($2, title),
            content      = COALESCE($3, content),
            last_updated = NOW(),
            last_dirtied = NOW()
        WHERE id = $1 AND NOT deleted
        RETURNING `+threadColumns, id, newTitle, newContent))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Thread{}, fmt.Errorf("failed to update thread: %w", err)
	}

	// Distinguish "missing" from "tombstoned" for the caller.
	if _, getErr := s.GetThread(id); getErr != nil {
		return domain.Thread{}, getErr
	}
	return domain.Thread{}, internal_errors.Validation("Thread is deleted")
}

// MarkDeleted tombstones the thread in place, leaving children, parent link
// and votes untouched. Idempotent.
func (s *Storage) MarkDeleted(id domain.ThreadId, tombstone string) (domain.Thread, error) {
	t, err := scanThread(s.db.QueryRow(`
        UPDATE threads SET
            title        = $2,
            content      = $2,
            deleted      = TRUE,
            last_updated = NOW(),
            last_dirtied = NOW()
        WHERE id = $1
        RETURNING `+threadColumns, id, tombstone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to tombstone thread: %w", err)
	}
	return t, nil
}

// DeleteThreads removes the given ids, returning how many rows existed.
// Already-missing ids are not an error.
func (s *Storage) DeleteThreads(ids []domain.ThreadId) (int, error) {
	result, err := s.db.Exec("DELETE FROM threads WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete threads: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted threads: %w", err)
	}
	return int(removed), nil
}

func (s *Storage) TouchDirty(id domain.ThreadId) error {
	result, err := s.db.Exec("UPDATE threads SET last_dirtied = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to touch thread %s: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}
