package tagbuild

import (
	"errors"
	"io"
	"log/slog"
	"sort"
)

// TagCatalog holds every tag of a repository whose target commit exists
type TagCatalog struct {
	tags    []RawTag
	commits map[string]Commit
}

// NewTagCatalog reads all tags from history. Tags on commits that can no
// longer be retrieved are dropped and logged; any other failure is returned
// as a RepositoryReadError.
func NewTagCatalog(history RepositoryHistory, logger *slog.Logger) (*TagCatalog, error) {
	if logger == nil {
		logger = discardLogger()
	}

	refs, err := history.Tags()
	if err != nil {
		return nil, &RepositoryReadError{Op: "listing tags", Err: err}
	}

	catalog := &TagCatalog{commits: map[string]Commit{}}
	for _, ref := range refs {
		commit, ok := catalog.commits[ref.Target]
		if !ok {
			commit, err = history.Commit(ref.Target)
			if errors.Is(err, ErrCommitNotFound) {
				logger.Warn("dropping tag on missing commit", "tag", ref.Name, "commit", ref.Target)
				continue
			}
			if err != nil {
				return nil, &RepositoryReadError{Op: "reading tag " + ref.Name, Err: err}
			}
			catalog.commits[commit.ID] = commit
		}

		tag := RawTag{
			Name:      ref.Name,
			CommitSha: commit.ID,
			Annotated: ref.Annotated,
			CreatedAt: commit.AuthoredAt,
			Message:   commit.Message,
		}
		if ref.Annotated {
			tag.CreatedAt = ref.TaggedAt
			tag.Message = ref.Message
		}
		catalog.tags = append(catalog.tags, tag)
	}

	sort.Slice(catalog.tags, func(i, j int) bool {
		return catalog.tags[i].Name < catalog.tags[j].Name
	})

	return catalog, nil
}

// Tags returns the catalogued tags ordered by name
func (c *TagCatalog) Tags() []RawTag {
	return c.tags
}

// TaggedCommits returns the target commits of all catalogued tags
func (c *TagCatalog) TaggedCommits() []Commit {
	commits := make([]Commit, 0, len(c.commits))
	for _, commit := range c.commits {
		commits = append(commits, commit)
	}
	sort.Slice(commits, func(i, j int) bool { return commits[i].ID < commits[j].ID })
	return commits
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
