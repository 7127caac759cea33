package tagbuild

import (
	"errors"
)

// DefaultStub is the stub build used when no Stub generator is configured
func DefaultStub(variant string) TagBuild {
	return TagBuild{
		Name:         "stub-" + variant,
		CommitSha:    "",
		Message:      "",
		BuildVersion: "0.0",
		BuildVariant: variant,
		BuildNumber:  1,
	}
}

// effectiveSwitches layers the variant overrides over the common switches
func effectiveSwitches(common, override Switches) (fromTag, stubs, defaults bool) {
	pick := func(o, c *bool, def bool) bool {
		switch {
		case o != nil:
			return *o
		case c != nil:
			return *c
		default:
			return def
		}
	}
	fromTag = pick(override.UseVersionsFromTag, common.UseVersionsFromTag, true)
	stubs = pick(override.UseStubsForTagAsFallback, common.UseStubsForTagAsFallback, false)
	defaults = pick(override.UseDefaultsForVersionsAsFallback, common.UseDefaultsForVersionsAsFallback, true)
	return fromTag, stubs, defaults
}

// ResolveFallback runs the fallback chain for a variant. selectCandidate is
// only called when tags are in use; a NoCandidateError from it continues the
// chain while any other error is returned unchanged.
func ResolveFallback(req VariantRequest, cfg FallbackConfig, selectCandidate func() (ParsedTag, error)) (TagBuild, Source, error) {
	fromTag, stubs, defaults := effectiveSwitches(cfg.Switches, req.Switches)

	if !fromTag {
		static := req.Static
		if static == nil {
			static = cfg.Static
		}
		if static != nil {
			return staticBuild(req.Variant, *static), SourceStatic, nil
		}
		return defaultBuild(req.Variant, cfg.Defaults), SourceDefault, nil
	}

	candidate, err := selectCandidate()
	if err == nil {
		return candidate.TagBuild(), SourceTag, nil
	}
	var noCandidate *NoCandidateError
	if !errors.As(err, &noCandidate) {
		return TagBuild{}, "", err
	}

	switch {
	case stubs:
		stub := cfg.Stub
		if stub == nil {
			stub = DefaultStub
		}
		build := stub(req.Variant)
		build.BuildVariant = req.Variant
		return build, SourceStub, nil
	case defaults:
		return defaultBuild(req.Variant, cfg.Defaults), SourceDefault, nil
	default:
		return TagBuild{}, "", err
	}
}

func staticBuild(variant string, v StaticVersion) TagBuild {
	return TagBuild{
		BuildVersion: v.VersionName,
		BuildVariant: variant,
		BuildNumber:  v.VersionCode,
	}
}

func defaultBuild(variant string, v *StaticVersion) TagBuild {
	if v == nil {
		return TagBuild{BuildVariant: variant}
	}
	return staticBuild(variant, *v)
}

// TagBuild converts a parsed tag into its output form
func (t ParsedTag) TagBuild() TagBuild {
	return TagBuild{
		Name:         t.Name,
		CommitSha:    t.CommitSha,
		Message:      t.Message,
		BuildVersion: t.BuildVersion,
		BuildVariant: t.BuildVariant,
		BuildNumber:  t.BuildNumber,
	}
}
