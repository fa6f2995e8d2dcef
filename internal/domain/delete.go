package domain

// DeleteMode selects between tombstoning a thread in place and removing it
// together with its whole subtree.
type DeleteMode string

const (
	SoftDelete DeleteMode = "soft"
	HardDelete DeleteMode = "hard"
)

func (m DeleteMode) Valid() bool {
	return m == SoftDelete || m == HardDelete
}
