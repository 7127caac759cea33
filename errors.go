package tagbuild

import (
	"errors"
	"fmt"
)

// ErrCommitNotFound is returned by a RepositoryHistory when a commit object
// can no longer be retrieved.
var ErrCommitNotFound = errors.New("commit not found")

// ConfigurationError reports an invalid tag pattern
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid tag pattern: %s", e.Reason)
}

// NoCandidateError reports that no tag qualifies as a build for the variant
type NoCandidateError struct {
	Variant string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("no tag with a build number above 0 found for variant %q", e.Variant)
}

// AmbiguousBuildNumberError reports two tags on different commits sharing the
// highest build number of a variant.
type AmbiguousBuildNumberError struct {
	Variant     string
	BuildNumber int
	First       string
	Second      string
}

func (e *AmbiguousBuildNumberError) Error() string {
	return fmt.Sprintf("tags %q and %q of variant %q both carry build number %d on different commits",
		e.First, e.Second, e.Variant, e.BuildNumber)
}

// ChronologyViolationError reports a tag with a lower build number that sits
// on a commit later than the commit of the highest build number.
type ChronologyViolationError struct {
	Variant         string
	Candidate       string
	CandidateCommit string
	CandidateNumber int
	Later           string
	LaterCommit     string
	LaterNumber     int
}

func (e *ChronologyViolationError) Error() string {
	return fmt.Sprintf(
		"tag %q (build %d, commit %s) is on a later commit than tag %q (build %d, commit %s) of variant %q but has a lower build number",
		e.Later, e.LaterNumber, e.LaterCommit,
		e.Candidate, e.CandidateNumber, e.CandidateCommit, e.Variant)
}

// RepositoryReadError wraps a failure of the underlying repository
type RepositoryReadError struct {
	Op  string
	Err error
}

func (e *RepositoryReadError) Error() string {
	return fmt.Sprintf("reading repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryReadError) Unwrap() error {
	return e.Err
}
