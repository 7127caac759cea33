package tagbuild

import (
	"sort"
)

// NewSnapshot finds the tags preceding current among the tags of its variant.
// PreviousInOrder is the tag with the next lower build number;
// PreviousOnDifferentCommit is the closest lower tag on another commit.
func NewSnapshot(current TagBuild, tags []ParsedTag, index *ChronologyIndex) BuildSnapshot {
	snapshot := BuildSnapshot{Current: &current}

	lower := make([]ParsedTag, 0, len(tags))
	for _, tag := range tags {
		if tag.BuildVariant == current.BuildVariant && tag.BuildNumber < current.BuildNumber {
			lower = append(lower, tag)
		}
	}

	sort.Slice(lower, func(i, j int) bool {
		a, b := lower[i], lower[j]
		if a.BuildNumber != b.BuildNumber {
			return a.BuildNumber > b.BuildNumber
		}
		if pa, pb := position(index, a.CommitSha), position(index, b.CommitSha); pa != pb {
			return pa > pb
		}
		return a.Name < b.Name
	})

	for _, tag := range lower {
		if snapshot.PreviousInOrder == nil {
			build := tag.TagBuild()
			snapshot.PreviousInOrder = &build
		}
		if tag.CommitSha != current.CommitSha {
			build := tag.TagBuild()
			snapshot.PreviousOnDifferentCommit = &build
			break
		}
	}

	return snapshot
}

func position(index *ChronologyIndex, id string) int {
	if index == nil {
		return 0
	}
	p, _ := index.Position(id)
	return p
}
