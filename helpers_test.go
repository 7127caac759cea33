package tagbuild

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// signatureAt returns a signature the given number of minutes after baseTime
func signatureAt(minutes int) *object.Signature {
	return &object.Signature{
		Name:  "test",
		Email: "test@example.com",
		When:  baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepo builds git histories where every commit is authored one minute
// after the previous one
type testRepo struct {
	t        *testing.T
	repo     *git.Repository
	worktree *git.Worktree
	commits  int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repo, err := testRepoCreate()
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, repo: repo, worktree: worktree}
}

// commit adds a commit on top of HEAD
func (r *testRepo) commit(message string) plumbing.Hash {
	r.t.Helper()
	r.commits++

	filename := fmt.Sprintf("file_%d.txt", r.commits)
	require.NoError(r.t, writeFile(r.worktree.Filesystem, filename, message))
	_, err := r.worktree.Add(filename)
	require.NoError(r.t, err)

	hash, err := r.worktree.Commit(message, &git.CommitOptions{Author: signatureAt(r.commits)})
	require.NoError(r.t, err)
	return hash
}

// resetHard moves HEAD back to hash, leaving later commits unreachable
func (r *testRepo) resetHard(hash plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.worktree.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}))
}

// tag creates a lightweight tag
func (r *testRepo) tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	_, err := r.repo.CreateTag(name, hash, nil)
	require.NoError(r.t, err)
}

// annotatedTag creates an annotated tag and returns the tag object hash
func (r *testRepo) annotatedTag(name string, hash plumbing.Hash, minutes int, message string) plumbing.Hash {
	r.t.Helper()
	ref, err := r.repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  signatureAt(minutes),
		Message: message,
	})
	require.NoError(r.t, err)
	return ref.Hash()
}

func (r *testRepo) history() *GitHistory {
	return NewGitHistory(r.repo)
}

// linearTaggedRepo creates one commit per tag and tags it
func linearTaggedRepo(t *testing.T, tags ...string) (*testRepo, []plumbing.Hash) {
	t.Helper()
	r := newTestRepo(t)
	hashes := make([]plumbing.Hash, 0, len(tags))
	for _, tag := range tags {
		hash := r.commit("Commit for " + tag)
		r.tag(tag, hash)
		hashes = append(hashes, hash)
	}
	return r, hashes
}

// memRepo builds MemoryHistory fixtures with explicit ids
type memRepo struct {
	t       *testing.T
	history *MemoryHistory
	minutes int
}

func newMemRepo(t *testing.T) *memRepo {
	return &memRepo{t: t, history: NewMemoryHistory()}
}

// commit adds a commit authored one minute after the previous one
func (m *memRepo) commit(id string, parents ...string) string {
	m.t.Helper()
	m.minutes++
	return m.commitAt(id, m.minutes, parents...)
}

func (m *memRepo) commitAt(id string, minutes int, parents ...string) string {
	m.t.Helper()
	require.NoError(m.t, m.history.AddCommit(Commit{
		ID:         id,
		Parents:    parents,
		AuthoredAt: baseTime.Add(time.Duration(minutes) * time.Minute),
		Message:    "commit " + id,
	}))
	return id
}

func (m *memRepo) tag(name, id string) {
	m.history.AddTag(TagRef{Name: name, Target: id})
}

func (m *memRepo) head(id string) {
	m.history.SetRef("HEAD", id)
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

func boolPtr(b bool) *bool {
	return &b
}
