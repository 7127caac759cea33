package tagbuild

import (
	"fmt"
	"log/slog"
)

// Resolver resolves builds for variants from a single read of a repository.
// Once built it holds only immutable derived views, so Resolve is safe for
// concurrent use.
type Resolver struct {
	fallback FallbackConfig
	logger   *slog.Logger
	index    *ChronologyIndex
	parsed   *ParsedTags
}

// NewResolver compiles the pattern and reads the tags and history of
// opts.Ref. The pattern is validated before the repository is touched.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.History == nil {
		return nil, fmt.Errorf("repository history is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	pattern, err := CompilePattern(opts.Pattern)
	if err != nil {
		return nil, err
	}

	ref := opts.Ref
	if ref == "" {
		ref = "HEAD"
	}
	tip, err := opts.History.ResolveRef(ref)
	if err != nil {
		return nil, &RepositoryReadError{Op: "resolving " + ref, Err: err}
	}

	catalog, err := NewTagCatalog(opts.History, logger)
	if err != nil {
		return nil, err
	}

	index, err := NewChronologyIndex(opts.History, tip, catalog.TaggedCommits(), logger)
	if err != nil {
		return nil, err
	}

	parsed := ParseTags(pattern, catalog.Tags(), logger)
	logger.Debug("repository read",
		"ref", ref,
		"tip", tip,
		"tags", len(catalog.Tags()),
		"commits", index.Len(),
		"variants", parsed.Variants())

	return &Resolver{
		fallback: opts.Fallback,
		logger:   logger,
		index:    index,
		parsed:   parsed,
	}, nil
}

// Resolve resolves the build of a single variant
func (r *Resolver) Resolve(req VariantRequest) (*Resolution, error) {
	if req.Variant == "" {
		return nil, fmt.Errorf("variant is required")
	}

	tags := r.parsed.Variant(req.Variant)
	build, source, err := ResolveFallback(req, r.fallback, func() (ParsedTag, error) {
		return SelectCandidate(req.Variant, tags, r.index)
	})
	if err != nil {
		return nil, err
	}

	snapshot := BuildSnapshot{Current: &build}
	if source == SourceTag {
		snapshot = NewSnapshot(build, tags, r.index)
	}

	r.logger.Info("resolved variant",
		"variant", req.Variant,
		"source", string(source),
		"tag", build.Name,
		"buildVersion", build.BuildVersion,
		"buildNumber", build.BuildNumber)

	return &Resolution{
		Variant:  req.Variant,
		Source:   source,
		Build:    build,
		Snapshot: snapshot,
	}, nil
}

// ResolveAll resolves each request in order and returns the first failure
// unchanged
func (r *Resolver) ResolveAll(reqs []VariantRequest) ([]*Resolution, error) {
	resolutions := make([]*Resolution, 0, len(reqs))
	for _, req := range reqs {
		resolution, err := r.Resolve(req)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, resolution)
	}
	return resolutions, nil
}

// Resolve reads the repository described by opts and resolves one variant
func Resolve(opts Options, req VariantRequest) (*Resolution, error) {
	resolver, err := NewResolver(opts)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(req)
}
