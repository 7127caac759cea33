package tagbuild

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitHistory implements RepositoryHistory on top of a go-git repository
type GitHistory struct {
	repo *git.Repository
}

// NewGitHistory wraps an opened repository
func NewGitHistory(repo *git.Repository) *GitHistory {
	return &GitHistory{repo: repo}
}

// OpenHistory opens the repository at path
func OpenHistory(path string) (*GitHistory, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository %q: %w", path, err)
	}
	return NewGitHistory(repo), nil
}

func (h *GitHistory) ResolveRef(ref string) (string, error) {
	hash, err := h.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", ref, err)
	}

	// Revisions naming an annotated tag resolve to the tag object
	if tag, err := h.repo.TagObject(*hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return "", fmt.Errorf("dereferencing tag %q: %w", ref, err)
		}
		return commit.Hash.String(), nil
	}
	return hash.String(), nil
}

func (h *GitHistory) Tags() ([]TagRef, error) {
	iter, err := h.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		tag := TagRef{
			Name:   ref.Name().Short(),
			Target: ref.Hash().String(),
		}

		obj, err := h.repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			tag.Annotated = true
			tag.TaggedAt = obj.Tagger.When
			tag.Message = obj.Message
			target, err := h.dereference(obj)
			if err != nil {
				return fmt.Errorf("dereferencing tag %q: %w", tag.Name, err)
			}
			tag.Target = target.String()
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
		default:
			return err
		}

		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// dereference follows chains of tag objects down to the tagged object
func (h *GitHistory) dereference(tag *object.Tag) (plumbing.Hash, error) {
	for tag.TargetType == plumbing.TagObject {
		next, err := h.repo.TagObject(tag.Target)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		tag = next
	}
	return tag.Target, nil
}

func (h *GitHistory) Commits(tip string) ([]Commit, error) {
	iter, err := h.repo.Log(&git.LogOptions{From: plumbing.NewHash(tip)})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", tip, err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", tip, err)
	}
	return commits, nil
}

func (h *GitHistory) Commit(id string) (Commit, error) {
	c, err := h.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, object.ErrUnsupportedObject) {
			return Commit{}, fmt.Errorf("commit %s: %w", id, ErrCommitNotFound)
		}
		return Commit{}, fmt.Errorf("commit %s: %w", id, err)
	}
	return toCommit(c), nil
}

func toCommit(c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		ID:         c.Hash.String(),
		Parents:    parents,
		AuthoredAt: c.Author.When,
		Message:    c.Message,
	}
}
