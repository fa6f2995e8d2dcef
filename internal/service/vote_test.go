package service

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-dev/arbor/internal/domain"
)

// scoreInvariant asserts score == |upvotes| - |downvotes| and set exclusivity.
func scoreInvariant(t *testing.T, thread domain.Thread) {
	t.Helper()
	assert.Equal(t, len(thread.Upvotes)-len(thread.Downvotes), thread.Score)
	for _, u := range thread.Upvotes {
		assert.NotContains(t, []string(thread.Downvotes), u, "user in both vote sets")
	}
}

func TestVoteUpDownClear(t *testing.T) {
	svc, _, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	updated, err := svc.Vote(thread.Id, "u2", domain.VoteUp, domain.VoteClear)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Score)
	assert.Contains(t, []string(updated.Upvotes), "u2")
	scoreInvariant(t, updated)

	updated, err = svc.Vote(thread.Id, "u2", domain.VoteDown, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, -1, updated.Score)
	assert.NotContains(t, []string(updated.Upvotes), "u2")
	assert.Contains(t, []string(updated.Downvotes), "u2")
	scoreInvariant(t, updated)

	updated, err = svc.Vote(thread.Id, "u2", domain.VoteClear, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Score)
	assert.Empty(t, updated.Upvotes)
	assert.Empty(t, updated.Downvotes)
	scoreInvariant(t, updated)
}

func TestVoteRoundTripRestoresOriginalState(t *testing.T) {
	svc, _, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	_, err := svc.Vote(thread.Id, "u1", domain.VoteUp, domain.VoteClear)
	require.NoError(t, err)
	updated, err := svc.Vote(thread.Id, "u1", domain.VoteClear, domain.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, 0, updated.Score)
	assert.Empty(t, updated.Upvotes)
	assert.Empty(t, updated.Downvotes)
}

func TestVoteIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	for i := 0; i < 3; i++ {
		updated, err := svc.Vote(thread.Id, "u2", domain.VoteUp, domain.VoteClear)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Score)
		assert.Len(t, updated.Upvotes, 1)
		scoreInvariant(t, updated)
	}

	// clear with previous=clear is a no-op
	updated, err := svc.Vote(thread.Id, "u3", domain.VoteClear, domain.VoteClear)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Score)
	scoreInvariant(t, updated)
}

func TestVoteStalePreviousVoteCannotDesyncScore(t *testing.T) {
	svc, _, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	// The client lies about its previous vote; the score still tracks the
	// actual set cardinalities.
	updated, err := svc.Vote(thread.Id, "u2", domain.VoteUp, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Score)
	scoreInvariant(t, updated)
}

func TestVoteErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	t.Run("missing thread", func(t *testing.T) {
		_, err := svc.Vote("nope", "u2", domain.VoteUp, domain.VoteClear)
		assert.Equal(t, http.StatusNotFound, statusCode(t, err))
	})
	t.Run("unknown vote kind", func(t *testing.T) {
		_, err := svc.Vote(thread.Id, "u2", domain.Vote("sideways"), domain.VoteClear)
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})
	t.Run("unknown previous vote kind", func(t *testing.T) {
		_, err := svc.Vote(thread.Id, "u2", domain.VoteUp, domain.Vote("sideways"))
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})
}

func TestConcurrentVotesConverge(t *testing.T) {
	svc, storage, _ := newTestService(t)
	thread := mustCreate(t, svc, "u1", nil, "t", "content")

	const voters = 32
	var wg sync.WaitGroup
	wg.Add(voters)
	for i := 0; i < voters; i++ {
		go func(i int) {
			defer wg.Done()
			voter := domain.UserId(fmt.Sprintf("voter-%d", i))
			vote := domain.VoteUp
			if i%4 == 0 {
				vote = domain.VoteDown
			}
			_, err := svc.Vote(thread.Id, voter, vote, domain.VoteClear)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := storage.GetThread(thread.Id)
	require.NoError(t, err)
	assert.Len(t, final.Upvotes, 24)
	assert.Len(t, final.Downvotes, 8)
	assert.Equal(t, 16, final.Score)
	scoreInvariant(t, final)
}
