package tagbuild

import (
	"log/slog"
	"strconv"
	"strings"
)

// ParsedTags holds the tags that matched a pattern, grouped by variant
type ParsedTags struct {
	byVariant map[string][]ParsedTag
}

// ParseTags applies the compiled pattern to every tag. Tags that do not
// match are skipped: repositories routinely carry unrelated tags.
func ParseTags(pattern *CompiledPattern, tags []RawTag, logger *slog.Logger) *ParsedTags {
	if logger == nil {
		logger = discardLogger()
	}

	parsed := &ParsedTags{byVariant: map[string][]ParsedTag{}}
	for _, tag := range tags {
		p, ok := ParseTag(pattern, tag)
		if !ok {
			logger.Debug("ignoring tag not matching pattern", "tag", tag.Name)
			continue
		}
		parsed.byVariant[p.BuildVariant] = append(parsed.byVariant[p.BuildVariant], p)
	}
	return parsed
}

// ParseTag extracts the build version, build number and variant from a
// single tag. The version capture needs at least two numeric components:
// the last is the build number and the rest form the build version.
func ParseTag(pattern *CompiledPattern, tag RawTag) (ParsedTag, bool) {
	raw, variant, ok := pattern.Match(tag.Name)
	if !ok {
		return ParsedTag{}, false
	}

	idx := strings.LastIndex(raw, ".")
	if idx < 0 {
		return ParsedTag{}, false
	}
	number, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		return ParsedTag{}, false
	}

	return ParsedTag{
		RawTag:       tag,
		BuildVersion: raw[:idx],
		BuildNumber:  number,
		BuildVariant: variant,
	}, true
}

// Variant returns the parsed tags of a variant in tag name order
func (p *ParsedTags) Variant(variant string) []ParsedTag {
	return p.byVariant[variant]
}

// Variants returns the number of distinct variants seen
func (p *ParsedTags) Variants() int {
	return len(p.byVariant)
}
