package tagbuild

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// ChronologyIndex assigns every known commit a position that is greater than
// the positions of all of its ancestors.
type ChronologyIndex struct {
	commits map[string]Commit
}

// NewChronologyIndex orders the commits reachable from tip together with the
// given extra commits and their retrievable ancestry. Extra commits cover
// tags on commits that were rewritten out of the reachable history.
//
// Commits become eligible once all their parents are placed; among eligible
// commits the earliest authored time goes first, then the smallest id.
func NewChronologyIndex(history RepositoryHistory, tip string, extra []Commit, logger *slog.Logger) (*ChronologyIndex, error) {
	if logger == nil {
		logger = discardLogger()
	}

	reachable, err := history.Commits(tip)
	if err != nil {
		return nil, &RepositoryReadError{Op: "walking history from " + tip, Err: err}
	}

	nodes := make(map[string]Commit, len(reachable))
	for _, c := range reachable {
		nodes[c.ID] = c
	}

	// Pull in the ancestry of unreachable commits until it joins known history
	pending := make([]Commit, 0, len(extra))
	for _, c := range extra {
		if _, ok := nodes[c.ID]; !ok {
			pending = append(pending, c)
		}
	}
	for len(pending) > 0 {
		c := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, ok := nodes[c.ID]; ok {
			continue
		}
		nodes[c.ID] = c
		logger.Debug("ordering commit outside reachable history", "commit", c.ID)

		for _, parent := range c.Parents {
			if _, ok := nodes[parent]; ok {
				continue
			}
			p, err := history.Commit(parent)
			if errors.Is(err, ErrCommitNotFound) {
				logger.Debug("parent commit no longer exists", "commit", c.ID, "parent", parent)
				continue
			}
			if err != nil {
				return nil, &RepositoryReadError{Op: "reading commit " + parent, Err: err}
			}
			pending = append(pending, p)
		}
	}

	return &ChronologyIndex{commits: order(nodes)}, nil
}

func order(nodes map[string]Commit) map[string]Commit {
	waiting := make(map[string]int, len(nodes))
	children := make(map[string][]string, len(nodes))
	for id, c := range nodes {
		for _, parent := range c.Parents {
			if _, ok := nodes[parent]; !ok {
				continue
			}
			waiting[id]++
			children[parent] = append(children[parent], id)
		}
	}

	ready := priorityqueue.NewWith(func(a, b interface{}) int {
		x, y := a.(Commit), b.(Commit)
		if !x.AuthoredAt.Equal(y.AuthoredAt) {
			if x.AuthoredAt.Before(y.AuthoredAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(x.ID, y.ID)
	})
	for id, c := range nodes {
		if waiting[id] == 0 {
			ready.Enqueue(c)
		}
	}

	ordered := make(map[string]Commit, len(nodes))
	position := 0
	for !ready.Empty() {
		v, _ := ready.Dequeue()
		c := v.(Commit)
		position++
		c.Position = position
		ordered[c.ID] = c

		for _, child := range children[c.ID] {
			waiting[child]--
			if waiting[child] == 0 {
				ready.Enqueue(nodes[child])
			}
		}
	}
	return ordered
}

// Position returns the position of a commit
func (x *ChronologyIndex) Position(id string) (int, bool) {
	c, ok := x.commits[id]
	if !ok {
		return 0, false
	}
	return c.Position, true
}

// Commit returns an indexed commit with its position set
func (x *ChronologyIndex) Commit(id string) (Commit, bool) {
	c, ok := x.commits[id]
	return c, ok
}

// Later reports whether commit a is strictly later than commit b. Unknown
// commits are never later than anything.
func (x *ChronologyIndex) Later(a, b string) bool {
	pa, okA := x.Position(a)
	pb, okB := x.Position(b)
	if !okA || !okB {
		return false
	}
	return pa > pb
}

// Len returns the number of indexed commits
func (x *ChronologyIndex) Len() int {
	return len(x.commits)
}
