package tagbuild

import (
	"fmt"
	"sort"
	"sync"
)

// RepositoryHistory is the read-only view of a repository the resolver needs
type RepositoryHistory interface {
	// ResolveRef resolves a reference such as "HEAD" or a branch name to the
	// id of its tip commit.
	ResolveRef(ref string) (string, error)

	// Tags enumerates every tag with its target commit
	Tags() ([]TagRef, error)

	// Commits returns every commit reachable from the given commit id
	Commits(tip string) ([]Commit, error)

	// Commit looks up a single commit, reachable or not. It returns an error
	// wrapping ErrCommitNotFound when the object is gone.
	Commit(id string) (Commit, error)
}

// MemoryHistory is an in-memory RepositoryHistory. Commits that are not
// reachable from any ref still resolve through Commit, the way rewritten
// commits stay retrievable in a real object store until pruned.
type MemoryHistory struct {
	mu      sync.RWMutex
	commits map[string]Commit
	refs    map[string]string
	tags    map[string]TagRef
}

// NewMemoryHistory creates an empty history
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		commits: map[string]Commit{},
		refs:    map[string]string{},
		tags:    map[string]TagRef{},
	}
}

// AddCommit stores a commit. Parents must already exist.
func (h *MemoryHistory) AddCommit(c Commit) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, parent := range c.Parents {
		if _, ok := h.commits[parent]; !ok {
			return fmt.Errorf("adding commit %s: parent %s: %w", c.ID, parent, ErrCommitNotFound)
		}
	}
	c.Position = 0
	h.commits[c.ID] = c
	return nil
}

// SetRef points a reference at a commit
func (h *MemoryHistory) SetRef(name, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs[name] = id
}

// AddTag stores a tag, replacing any tag of the same name
func (h *MemoryHistory) AddTag(tag TagRef) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tags[tag.Name] = tag
}

// RemoveCommit deletes a commit object, simulating garbage collection
func (h *MemoryHistory) RemoveCommit(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.commits, id)
}

func (h *MemoryHistory) ResolveRef(ref string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if id, ok := h.refs[ref]; ok {
		return id, nil
	}
	if tag, ok := h.tags[ref]; ok {
		return tag.Target, nil
	}
	if _, ok := h.commits[ref]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("reference %q not found", ref)
}

func (h *MemoryHistory) Tags() ([]TagRef, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tags := make([]TagRef, 0, len(h.tags))
	for _, tag := range h.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (h *MemoryHistory) Commits(tip string) ([]Commit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := map[string]bool{}
	stack := []string{tip}
	var commits []Commit
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		c, ok := h.commits[id]
		if !ok {
			return nil, fmt.Errorf("walking history from %s: commit %s: %w", tip, id, ErrCommitNotFound)
		}
		commits = append(commits, c)
		stack = append(stack, c.Parents...)
	}
	return commits, nil
}

func (h *MemoryHistory) Commit(id string) (Commit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.commits[id]
	if !ok {
		return Commit{}, fmt.Errorf("commit %s: %w", id, ErrCommitNotFound)
	}
	return c, nil
}
