package memory

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-dev/arbor/internal/domain"
	internal_errors "github.com/arbor-dev/arbor/internal/errors"
)

func mustInsert(t *testing.T, s *Storage, id string, parentId *string) domain.Thread {
	t.Helper()
	thread := domain.Thread{Id: id, CreatorId: "u1", ParentId: parentId, Content: "content"}
	require.NoError(t, s.CreateThread(&thread))
	return thread
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	var e *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &e)
	assert.Equal(t, code, e.StatusCode)
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := New()
	created := mustInsert(t, s, "t1", nil)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetThread("t1")
	require.NoError(t, err)
	assert.Equal(t, created.Id, got.Id)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	_, err = s.GetThread("missing")
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreateExistingIdReturnsStoredRecord(t *testing.T) {
	s := New()
	first := mustInsert(t, s, "t1", nil)

	retry := domain.Thread{Id: "t1", CreatorId: "someone-else", Content: "different"}
	require.NoError(t, s.CreateThread(&retry))
	assert.Equal(t, first.CreatorId, retry.CreatorId)
	assert.Equal(t, first.Content, retry.Content)
}

func TestReturnedCopiesAreDetached(t *testing.T) {
	s := New()
	mustInsert(t, s, "t1", nil)

	got, err := s.GetThread("t1")
	require.NoError(t, err)
	got.Children = append(got.Children, "sneaky")

	again, err := s.GetThread("t1")
	require.NoError(t, err)
	assert.Empty(t, again.Children)
}

func TestChildrenOf(t *testing.T) {
	s := New()
	root := mustInsert(t, s, "root", nil)
	mustInsert(t, s, "c1", &root.Id)
	mustInsert(t, s, "c2", &root.Id)
	mustInsert(t, s, "other", nil)

	children, err := s.ChildrenOf([]domain.ThreadId{"root"})
	require.NoError(t, err)
	ids := []string{}
	for _, c := range children {
		ids = append(ids, c.Id)
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
}

func TestAppendRemoveChild(t *testing.T) {
	s := New()
	mustInsert(t, s, "root", nil)

	require.NoError(t, s.AppendChild("root", "c1"))
	require.NoError(t, s.AppendChild("root", "c1")) // idempotent

	got, err := s.GetThread("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, []string(got.Children))

	require.NoError(t, s.RemoveChild("root", "c1"))
	got, err = s.GetThread("root")
	require.NoError(t, err)
	assert.Empty(t, got.Children)

	assertStatus(t, s.AppendChild("missing", "c1"), http.StatusNotFound)
}

func TestApplyVoteMaintainsInvariants(t *testing.T) {
	s := New()
	mustInsert(t, s, "t1", nil)

	got, err := s.ApplyVote("t1", "u2", domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Score)

	got, err = s.ApplyVote("t1", "u2", domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Score)
	assert.Empty(t, got.Upvotes)
	assert.Equal(t, []string{"u2"}, []string(got.Downvotes))

	got, err = s.ApplyVote("t1", "u2", domain.VoteClear)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Score)
	assert.Empty(t, got.Upvotes)
	assert.Empty(t, got.Downvotes)
}

func TestUpdateContentOnTombstone(t *testing.T) {
	s := New()
	mustInsert(t, s, "t1", nil)

	_, err := s.MarkDeleted("t1", domain.Tombstone)
	require.NoError(t, err)

	content := "resurrected"
	_, err = s.UpdateContent("t1", nil, &content)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestDeleteThreadsCountsExisting(t *testing.T) {
	s := New()
	mustInsert(t, s, "t1", nil)
	mustInsert(t, s, "t2", nil)

	removed, err := s.DeleteThreads([]domain.ThreadId{"t1", "t2", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	threads, err := s.GetThreads([]domain.ThreadId{"t1", "t2"})
	require.NoError(t, err)
	assert.Empty(t, threads)
}
