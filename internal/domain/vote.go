package domain

// Vote is the direction a viewer assigns to a thread. VoteClear removes any
// standing vote.
type Vote string

const (
	VoteUp    Vote = "upvote"
	VoteDown  Vote = "downvote"
	VoteClear Vote = "clear"
)

func (v Vote) Valid() bool {
	switch v {
	case VoteUp, VoteDown, VoteClear:
		return true
	}
	return false
}
