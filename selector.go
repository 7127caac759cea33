package tagbuild

import (
	"sort"
)

// SelectCandidate picks the authoritative tag of a variant: the tag with the
// highest build number. Tags with a build number of 0 or less never qualify.
//
// Several tags sharing the highest number are accepted only when they sit on
// the same commit. A qualifying tag on a commit later than the candidate's
// commit with a lower build number is a ChronologyViolationError.
func SelectCandidate(variant string, tags []ParsedTag, index *ChronologyIndex) (ParsedTag, error) {
	eligible := make([]ParsedTag, 0, len(tags))
	for _, tag := range tags {
		if tag.BuildVariant == variant && tag.BuildNumber > 0 {
			eligible = append(eligible, tag)
		}
	}
	if len(eligible) == 0 {
		return ParsedTag{}, &NoCandidateError{Variant: variant}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Name < eligible[j].Name
	})

	highest := eligible[0].BuildNumber
	for _, tag := range eligible[1:] {
		if tag.BuildNumber > highest {
			highest = tag.BuildNumber
		}
	}

	var top []ParsedTag
	for _, tag := range eligible {
		if tag.BuildNumber == highest {
			top = append(top, tag)
		}
	}

	candidate := top[0]
	for _, tag := range top[1:] {
		if tag.CommitSha != candidate.CommitSha {
			return ParsedTag{}, &AmbiguousBuildNumberError{
				Variant:     variant,
				BuildNumber: highest,
				First:       candidate.Name,
				Second:      tag.Name,
			}
		}
		if tag.CreatedAt.After(candidate.CreatedAt) {
			candidate = tag
		}
	}

	for _, tag := range eligible {
		if tag.BuildNumber < candidate.BuildNumber && index.Later(tag.CommitSha, candidate.CommitSha) {
			return ParsedTag{}, &ChronologyViolationError{
				Variant:         variant,
				Candidate:       candidate.Name,
				CandidateCommit: candidate.CommitSha,
				CandidateNumber: candidate.BuildNumber,
				Later:           tag.Name,
				LaterCommit:     tag.CommitSha,
				LaterNumber:     tag.BuildNumber,
			}
		}
	}

	return candidate, nil
}
