// Package tagbuild resolves build versions and build numbers for build variants
// from the tags of a Git repository.
package tagbuild

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/blang/semver"
)

// Commit is a single commit as seen by the resolver
type Commit struct {
	ID         string
	Parents    []string
	AuthoredAt time.Time
	Message    string

	// Position is assigned by the ChronologyIndex and is always greater than
	// the position of every ancestor. Zero means unassigned.
	Position int
}

// TagRef is a tag as enumerated by a RepositoryHistory. Target is the commit
// the tag points at, already dereferenced for annotated tags.
type TagRef struct {
	Name      string
	Target    string
	Annotated bool
	TaggedAt  time.Time
	Message   string
}

// RawTag is a catalogued tag whose target commit is known to exist
type RawTag struct {
	Name      string
	CommitSha string
	Annotated bool

	// CreatedAt is the tag time for annotated tags and the authored time of
	// the target commit otherwise.
	CreatedAt time.Time

	// Message is the annotation message, or the commit message for
	// lightweight tags.
	Message string
}

// ParsedTag is a RawTag whose name matched the compiled pattern
type ParsedTag struct {
	RawTag
	BuildVersion string
	BuildNumber  int
	BuildVariant string
}

// TagBuild is the resolved build information for one variant
type TagBuild struct {
	Name         string `json:"name"`
	CommitSha    string `json:"commitSha"`
	Message      string `json:"message"`
	BuildVersion string `json:"buildVersion"`
	BuildVariant string `json:"buildVariant"`
	BuildNumber  int    `json:"buildNumber"`
}

// VersionName is the human facing version of the build
func (b TagBuild) VersionName() string {
	return b.BuildVersion
}

// VersionCode is the build number
func (b TagBuild) VersionCode() int {
	return b.BuildNumber
}

// SemVer renders the build as a semantic version, padding missing version
// components with zeros and carrying the build number as build metadata.
func (b TagBuild) SemVer() (semver.Version, error) {
	version, err := semver.ParseTolerant(b.BuildVersion)
	if err != nil {
		return semver.Version{}, err
	}
	version.Build = []string{strconv.Itoa(b.BuildNumber)}
	return version, nil
}

// BuildSnapshot is the current build plus up to two preceding tags, used to
// compute changelog deltas.
type BuildSnapshot struct {
	Current                   *TagBuild `json:"current"`
	PreviousInOrder           *TagBuild `json:"previousInOrder"`
	PreviousOnDifferentCommit *TagBuild `json:"previousOnDifferentCommit"`
}

// Source identifies which step of the fallback chain produced a build
type Source string

const (
	SourceTag     Source = "tag"
	SourceStatic  Source = "static"
	SourceStub    Source = "stub"
	SourceDefault Source = "default"
)

// Resolution is the result of resolving a single variant
type Resolution struct {
	Variant  string
	Source   Source
	Build    TagBuild
	Snapshot BuildSnapshot
}

// Switches holds the three fallback switches. Nil fields are unset, so
// per-variant values can be layered over a common default.
type Switches struct {
	UseVersionsFromTag               *bool
	UseStubsForTagAsFallback         *bool
	UseDefaultsForVersionsAsFallback *bool
}

// StaticVersion is a statically configured version name and code
type StaticVersion struct {
	VersionName string
	VersionCode int
}

// VariantRequest asks for the build of a single variant
type VariantRequest struct {
	Variant string

	// Switches overrides FallbackConfig.Switches for this variant
	Switches Switches

	// Static is the statically configured version for this variant
	Static *StaticVersion
}

// FallbackConfig configures the fallback chain shared by all variants
type FallbackConfig struct {
	// Switches are the common defaults; unset fields default to
	// useVersionsFromTag=true, useStubsForTagAsFallback=false and
	// useDefaultsForVersionsAsFallback=true.
	Switches Switches

	// Static is used for variants without their own static version
	Static *StaticVersion

	// Defaults are used when the chain falls back to defaults. Nil yields
	// empty values.
	Defaults *StaticVersion

	// Stub generates the stub build for a variant. Nil uses DefaultStub.
	Stub func(variant string) TagBuild
}

// Options configures a Resolver
type Options struct {
	// History is the repository to read
	History RepositoryHistory

	// Ref is the reference whose history is resolved (default: "HEAD")
	Ref string

	// Pattern is the tag naming pattern. Nil uses DefaultPattern.
	Pattern Pattern

	Fallback FallbackConfig

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}
