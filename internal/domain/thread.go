package domain

import (
	"time"

	"github.com/lib/pq"
)

type ThreadId = string
type UserId = string

// Tombstone replaces title and content of soft-deleted threads.
const Tombstone = "[deleted]"

// Thread is one node of the discussion tree. ParentId is the authoritative
// edge; Children is a denormalized adjacency cache maintained best-effort
// and never trusted by traversal code.
type Thread struct {
	Id          ThreadId       `json:"id"`
	CreatorId   UserId         `json:"creator_id"`
	ParentId    *ThreadId      `json:"parent_id,omitempty"`
	Title       string         `json:"title,omitempty"`
	Content     string         `json:"content"`
	Children    pq.StringArray `json:"children"`
	Upvotes     pq.StringArray `json:"-"`
	Downvotes   pq.StringArray `json:"-"`
	Score       int            `json:"score"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUpdated time.Time      `json:"last_updated"`
	LastDirtied time.Time      `json:"last_dirtied"`
	Deleted     bool           `json:"deleted"`
}

func (t *Thread) IsRoot() bool {
	return t.ParentId == nil || *t.ParentId == ""
}

// HasVoted reports membership of userId in the given vote set.
func HasVoted(set pq.StringArray, userId UserId) bool {
	for _, id := range set {
		if id == userId {
			return true
		}
	}
	return false
}

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Id        ThreadId // optional, generated when empty
	CreatorId UserId
	ParentId  *ThreadId
	Title     string
	Content   string
}

// VoteState is the requesting viewer's personal vote on one thread.
type VoteState struct {
	IsUpvoted   bool `json:"is_upvoted"`
	IsDownvoted bool `json:"is_downvoted"`
}

// ThreadView is a Thread annotated for a read response. Viewer is nil for
// anonymous reads.
type ThreadView struct {
	Thread
	Depth       int        `json:"depth"`
	ContentHTML string     `json:"content_html,omitempty"`
	Viewer      *VoteState `json:"viewer,omitempty"`
}

// ThreadTree is the result of a subtree fetch. All = [Root, Descendants...].
// Callers must not rely on slice order beyond that, only on depth values.
type ThreadTree struct {
	Root        ThreadView   `json:"root"`
	Descendants []ThreadView `json:"descendants"`
	All         []ThreadView `json:"all"`
}
