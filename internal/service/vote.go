package service

import (
	"github.com/arbor-dev/arbor/internal/domain"
	internal_errors "github.com/arbor-dev/arbor/internal/errors"
)

// Vote applies newVote for viewer on the given thread. Set membership and
// score move together in one conditional write, so concurrent votes on the
// same thread serialize at the store and converge.
//
// previousVote is the caller's record of their prior vote. It is accepted on
// the wire but not trusted: the store recomputes the score from the
// resulting set cardinalities, so a stale previousVote cannot desynchronize
// score from the sets. Voting the same direction twice is a no-op thanks to
// set semantics.
func (s *Thread) Vote(id domain.ThreadId, viewer domain.UserId, newVote, previousVote domain.Vote) (domain.Thread, error) {
	if !newVote.Valid() {
		return domain.Thread{}, internal_errors.Validation("Unknown vote kind")
	}
	if !previousVote.Valid() {
		return domain.Thread{}, internal_errors.Validation("Unknown previous vote kind")
	}

	updated, err := s.storage.ApplyVote(id, viewer, newVote)
	if err != nil {
		return domain.Thread{}, err
	}
	s.dirty.Propagate(updated)

	return updated, nil
}
