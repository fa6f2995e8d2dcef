package service

import (
	"fmt"

	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/logger"
	"github.com/arbor-dev/arbor/internal/markdown"
)

// TreeStorage is the read-side subset of ThreadStorage.
type TreeStorage interface {
	GetThread(id domain.ThreadId) (domain.Thread, error)
	GetThreads(ids []domain.ThreadId) ([]domain.Thread, error)
	ChildrenOf(parents []domain.ThreadId) ([]domain.Thread, error)
}

type ChildrenLister interface {
	ChildrenOf(parents []domain.ThreadId) ([]domain.Thread, error)
}

// TreeFetcher reconstructs a root+descendants view and annotates every node
// with the viewer's vote state and rendered content.
type TreeFetcher struct {
	storage  TreeStorage
	renderer *markdown.Renderer
	depthCap int // hard server cap for unbounded fetches, 0 = none
}

func NewTreeFetcher(storage TreeStorage, renderer *markdown.Renderer, depthCap int) *TreeFetcher {
	return &TreeFetcher{storage, renderer, depthCap}
}

// GetTree fetches the subtree rooted at rootId. maxDepth <= 0 means
// unbounded (subject to the configured cap). Results are best-effort
// eventually consistent: traversal follows the parent_id back-reference only
// and skips records it has already seen.
func (f *TreeFetcher) GetTree(rootId domain.ThreadId, maxDepth int, viewer domain.UserId) (domain.ThreadTree, error) {
	root, err := f.storage.GetThread(rootId)
	if err != nil {
		return domain.ThreadTree{}, err
	}

	if maxDepth <= 0 {
		maxDepth = f.depthCap
	} else if f.depthCap > 0 && maxDepth > f.depthCap {
		maxDepth = f.depthCap
	}

	nodes, err := expandSubtree(f.storage, root.Id, maxDepth)
	if err != nil {
		return domain.ThreadTree{}, fmt.Errorf("failed to expand subtree of %s: %w", rootId, err)
	}

	tree := domain.ThreadTree{
		Root:        f.view(root, 0, viewer),
		Descendants: make([]domain.ThreadView, 0, len(nodes)),
	}
	for _, n := range nodes {
		tree.Descendants = append(tree.Descendants, f.view(n.thread, n.depth, viewer))
	}
	tree.All = append([]domain.ThreadView{tree.Root}, tree.Descendants...)

	return tree, nil
}

// GetThreads fetches a set of threads by id, omitting missing ids.
func (f *TreeFetcher) GetThreads(ids []domain.ThreadId, viewer domain.UserId) ([]domain.ThreadView, error) {
	threads, err := f.storage.GetThreads(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}
	views := make([]domain.ThreadView, 0, len(threads))
	for _, t := range threads {
		views = append(views, f.view(t, 0, viewer))
	}
	return views, nil
}

func (f *TreeFetcher) view(t domain.Thread, depth int, viewer domain.UserId) domain.ThreadView {
	view := domain.ThreadView{Thread: t, Depth: depth}
	if viewer != "" {
		view.Viewer = &domain.VoteState{
			IsUpvoted:   domain.HasVoted(t.Upvotes, viewer),
			IsDownvoted: domain.HasVoted(t.Downvotes, viewer),
		}
	}
	if f.renderer != nil && !t.Deleted {
		html, err := f.renderer.Render(t.Content)
		if err != nil {
			logger.Log.Warn("failed to render thread content", "thread", t.Id, "error", err)
		} else {
			view.ContentHTML = html
		}
	}
	return view
}

type depthThread struct {
	thread domain.Thread
	depth  int
}

// expandSubtree performs iterative breadth-first frontier expansion from
// rootId following the parent_id back-reference. maxDepth <= 0 means
// unbounded. A seen set guards against cycles and duplicate child links left
// by partial multi-record writes; such records are skipped and logged, never
// fatal.
func expandSubtree(storage ChildrenLister, rootId domain.ThreadId, maxDepth int) ([]depthThread, error) {
	var result []depthThread
	seen := map[domain.ThreadId]bool{rootId: true}
	frontier := []domain.ThreadId{rootId}

	for depth := 1; maxDepth <= 0 || depth <= maxDepth; depth++ {
		if len(frontier) == 0 {
			break
		}
		children, err := storage.ChildrenOf(frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to expand frontier at depth %d: %w", depth, err)
		}
		frontier = frontier[:0]
		for _, child := range children {
			if seen[child.Id] {
				logger.Log.Warn("skipping already-visited thread during traversal",
					"op", "subtree", "root", rootId, "thread", child.Id)
				continue
			}
			seen[child.Id] = true
			result = append(result, depthThread{thread: child, depth: depth})
			frontier = append(frontier, child.Id)
		}
	}

	return result, nil
}
