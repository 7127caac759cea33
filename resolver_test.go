package tagbuild

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// untouchableHistory fails every call and counts them
type untouchableHistory struct {
	calls int
}

func (h *untouchableHistory) ResolveRef(string) (string, error) {
	h.calls++
	return "", errors.New("unexpected call")
}

func (h *untouchableHistory) Tags() ([]TagRef, error) {
	h.calls++
	return nil, errors.New("unexpected call")
}

func (h *untouchableHistory) Commits(string) ([]Commit, error) {
	h.calls++
	return nil, errors.New("unexpected call")
}

func (h *untouchableHistory) Commit(string) (Commit, error) {
	h.calls++
	return Commit{}, errors.New("unexpected call")
}

func TestResolve(t *testing.T) {
	t.Run("Single tagged commit", func(t *testing.T) {
		r, hashes := linearTaggedRepo(t, "v1.0.1-debug")

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, SourceTag, resolution.Source)
		require.Equal(t, "debug", resolution.Variant)

		build := resolution.Build
		require.Equal(t, "v1.0.1-debug", build.Name)
		require.Equal(t, hashes[0].String(), build.CommitSha)
		require.Equal(t, "1.0", build.BuildVersion)
		require.Equal(t, "debug", build.BuildVariant)
		require.Equal(t, 1, build.BuildNumber)
		require.Equal(t, "Commit for v1.0.1-debug", strings.TrimSpace(build.Message))
	})

	t.Run("Build number zero", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.0-debug")

		opts := Options{
			History: r.history(),
			Fallback: FallbackConfig{
				Switches: Switches{UseDefaultsForVersionsAsFallback: boolPtr(false)},
			},
		}
		_, err := Resolve(opts, VariantRequest{Variant: "debug"})
		var noCandidate *NoCandidateError
		require.ErrorAs(t, err, &noCandidate)
		require.Equal(t, "debug", noCandidate.Variant)
	})

	t.Run("Two builds", func(t *testing.T) {
		r, hashes := linearTaggedRepo(t, "v1.0.1-debug", "v1.0.2-debug")

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, hashes[1].String(), resolution.Build.CommitSha)
		require.Equal(t, 2, resolution.Build.BuildNumber)

		snapshot := resolution.Snapshot
		require.Equal(t, resolution.Build, *snapshot.Current)
		require.NotNil(t, snapshot.PreviousInOrder)
		require.Equal(t, "v1.0.1-debug", snapshot.PreviousInOrder.Name)
		require.Equal(t, hashes[0].String(), snapshot.PreviousInOrder.CommitSha)
		require.Equal(t, "v1.0.1-debug", snapshot.PreviousOnDifferentCommit.Name)
	})

	t.Run("Build numbers follow commit order", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v4.2.206-release", "v4.2.207-release", "v4.2.208-release")

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "release"})
		require.NoError(t, err)
		require.Equal(t, 208, resolution.Build.BuildNumber)
		require.Equal(t, "4.2", resolution.Build.BuildVersion)
	})

	t.Run("Lower build number after the highest", func(t *testing.T) {
		r, hashes := linearTaggedRepo(t, "v4.2.206-release", "v4.2.207-release", "v4.2.209-release", "v4.2.208-release")

		_, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "release"})
		var violation *ChronologyViolationError
		require.ErrorAs(t, err, &violation)
		require.Equal(t, "v4.2.209-release", violation.Candidate)
		require.Equal(t, hashes[2].String(), violation.CandidateCommit)
		require.Equal(t, "v4.2.208-release", violation.Later)
		require.Equal(t, hashes[3].String(), violation.LaterCommit)
	})

	t.Run("Annotated tag message", func(t *testing.T) {
		r := newTestRepo(t)
		commit := r.commit("Feature work")
		r.annotatedTag("v2.0.3-qa", commit, 60, "QA build 3")

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "qa"})
		require.NoError(t, err)
		require.Equal(t, commit.String(), resolution.Build.CommitSha)
		require.Equal(t, "QA build 3", strings.TrimSpace(resolution.Build.Message))
	})

	t.Run("Foreign tags are ignored", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.1-debug", "sdk/v0.3.0", "latest", "v1.0.2-debug")

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, 2, resolution.Build.BuildNumber)
	})

	t.Run("Custom pattern", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "build/debug/1.3.7", "v1.0.9-debug")

		opts := Options{
			History: r.history(),
			Pattern: Pattern{Literal("build"), Separator("/"), BuildVariantPlaceholder(), Separator("/"), BuildVersionPlaceholder()},
		}
		resolution, err := Resolve(opts, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, "build/debug/1.3.7", resolution.Build.Name)
		require.Equal(t, "1.3", resolution.Build.BuildVersion)
		require.Equal(t, 7, resolution.Build.BuildNumber)
	})

	t.Run("Stub fallback", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.1-debug")

		opts := Options{
			History:  r.history(),
			Fallback: FallbackConfig{Switches: Switches{UseStubsForTagAsFallback: boolPtr(true)}},
		}
		resolution, err := Resolve(opts, VariantRequest{Variant: "release"})
		require.NoError(t, err)
		require.Equal(t, SourceStub, resolution.Source)
		require.Equal(t, DefaultStub("release"), resolution.Build)
		require.Nil(t, resolution.Snapshot.PreviousInOrder)
	})

	t.Run("Missing variant", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.1-debug")
		_, err := Resolve(Options{History: r.history()}, VariantRequest{})
		require.Error(t, err)
	})

	t.Run("Missing history", func(t *testing.T) {
		_, err := Resolve(Options{}, VariantRequest{Variant: "debug"})
		require.Error(t, err)
	})
}

func TestResolveRewrittenHistory(t *testing.T) {
	t.Run("Amended commit keeps its tag orderable", func(t *testing.T) {
		r := newTestRepo(t)
		first := r.commit("First")
		r.tag("v1.0.1-debug", first)
		amended := r.commit("Second")
		r.tag("v1.0.2-debug", amended)
		r.resetHard(first)
		rewritten := r.commit("Second, amended")
		r.tag("v1.0.3-debug", rewritten)

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, rewritten.String(), resolution.Build.CommitSha)
		require.Equal(t, 3, resolution.Build.BuildNumber)
		require.Equal(t, amended.String(), resolution.Snapshot.PreviousInOrder.CommitSha)
	})

	t.Run("Lower number on the rewritten commit", func(t *testing.T) {
		r := newTestRepo(t)
		first := r.commit("First")
		r.tag("v1.0.1-debug", first)
		amended := r.commit("Second")
		r.tag("v1.0.3-debug", amended)
		r.resetHard(first)
		rewritten := r.commit("Second, amended")
		r.tag("v1.0.2-debug", rewritten)

		_, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		var violation *ChronologyViolationError
		require.ErrorAs(t, err, &violation)
		require.Equal(t, amended.String(), violation.CandidateCommit)
		require.Equal(t, rewritten.String(), violation.LaterCommit)
	})

	t.Run("Tag on a pruned commit is dropped", func(t *testing.T) {
		m := newMemRepo(t)
		m.commit("c1")
		m.commit("gone", "c1")
		m.commit("c2", "c1")
		m.head("c2")
		m.tag("v1.0.1-debug", "c1")
		m.tag("v1.0.5-debug", "gone")
		m.tag("v1.0.2-debug", "c2")
		m.history.RemoveCommit("gone")

		resolution, err := Resolve(Options{History: m.history}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.Equal(t, 2, resolution.Build.BuildNumber)
	})
}

func TestResolveErrors(t *testing.T) {
	t.Run("Invalid pattern fails before reading the repository", func(t *testing.T) {
		history := &untouchableHistory{}
		_, err := NewResolver(Options{
			History: history,
			Pattern: Pattern{Literal("v"), BuildVersionPlaceholder()},
		})
		var configErr *ConfigurationError
		require.ErrorAs(t, err, &configErr)
		require.Zero(t, history.calls)
	})

	t.Run("Unknown ref", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.1-debug")
		_, err := NewResolver(Options{History: r.history(), Ref: "does-not-exist"})
		var readErr *RepositoryReadError
		require.ErrorAs(t, err, &readErr)
	})

	t.Run("Ambiguous build number", func(t *testing.T) {
		r, _ := linearTaggedRepo(t, "v1.0.4-debug", "v1.1.4-debug")
		_, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		var ambiguous *AmbiguousBuildNumberError
		require.ErrorAs(t, err, &ambiguous)
	})
}

func TestResolveDeterminism(t *testing.T) {
	r, _ := linearTaggedRepo(t, "v1.0.1-debug", "v1.0.2-debug", "v1.0.2-release", "v1.0.3-debug")
	history := r.history()

	first, err := Resolve(Options{History: history}, VariantRequest{Variant: "debug"})
	require.NoError(t, err)
	second, err := Resolve(Options{History: history}, VariantRequest{Variant: "debug"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveMonotonicity(t *testing.T) {
	r := newTestRepo(t)
	previous := 0
	for i := 1; i <= 6; i++ {
		hash := r.commit(fmt.Sprintf("Commit %d", i))
		if i%2 == 0 {
			r.tag(fmt.Sprintf("v1.0.%d-debug", i), hash)
		}

		resolution, err := Resolve(Options{History: r.history()}, VariantRequest{Variant: "debug"})
		require.NoError(t, err)
		require.GreaterOrEqual(t, resolution.Build.BuildNumber, previous)
		previous = resolution.Build.BuildNumber
	}
	require.Equal(t, 6, previous)
}

func TestResolveVariantIsolation(t *testing.T) {
	r := newTestRepo(t)
	first := r.commit("First")
	second := r.commit("Second")
	r.tag("v1.0.1-debug", first)
	r.tag("v1.0.9-release", first)
	r.tag("v1.0.2-debug", second)
	r.tag("v1.0.3-release", second)

	resolver, err := NewResolver(Options{History: r.history()})
	require.NoError(t, err)

	debug, err := resolver.Resolve(VariantRequest{Variant: "debug"})
	require.NoError(t, err)
	require.Equal(t, 2, debug.Build.BuildNumber)

	_, err = resolver.Resolve(VariantRequest{Variant: "release"})
	var violation *ChronologyViolationError
	require.ErrorAs(t, err, &violation)

	_, err = resolver.ResolveAll([]VariantRequest{{Variant: "debug"}, {Variant: "release"}})
	require.ErrorAs(t, err, &violation)
}

func TestResolverConcurrentVariants(t *testing.T) {
	r := newTestRepo(t)
	for i := 1; i <= 3; i++ {
		hash := r.commit(fmt.Sprintf("Commit %d", i))
		for _, variant := range []string{"debug", "release", "qa"} {
			r.tag(fmt.Sprintf("v2.1.%d-%s", i, variant), hash)
		}
	}

	resolver, err := NewResolver(Options{History: r.history()})
	require.NoError(t, err)

	variants := []string{"debug", "release", "qa", "debug", "release", "qa"}
	results := make([]*Resolution, len(variants))
	errs := make([]error, len(variants))

	var wg sync.WaitGroup
	for i, variant := range variants {
		wg.Add(1)
		go func(i int, variant string) {
			defer wg.Done()
			results[i], errs[i] = resolver.Resolve(VariantRequest{Variant: variant})
		}(i, variant)
	}
	wg.Wait()

	for i, variant := range variants {
		require.NoError(t, errs[i])
		require.Equal(t, variant, results[i].Build.BuildVariant)
		require.Equal(t, 3, results[i].Build.BuildNumber)
	}

	all, err := resolver.ResolveAll([]VariantRequest{{Variant: "debug"}, {Variant: "qa"}})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
