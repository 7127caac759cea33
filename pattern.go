package tagbuild

import (
	"fmt"
	"regexp"
	"strings"
)

// TokenKind identifies the kind of a PatternToken
type TokenKind int

const (
	// TokenLiteral matches its text exactly
	TokenLiteral TokenKind = iota
	// TokenSeparator matches its text exactly
	TokenSeparator
	// TokenOptionalSeparator matches its text or nothing
	TokenOptionalSeparator
	// TokenAnyBeforeDot matches leading filler that contains no dot
	TokenAnyBeforeDot
	// TokenBuildVersion captures dot separated digit runs
	TokenBuildVersion
	// TokenBuildVariant captures the variant identifier
	TokenBuildVariant
	// TokenAnyOptionalSymbols matches any trailing text
	TokenAnyOptionalSymbols
)

var tokenNames = map[TokenKind]string{
	TokenLiteral:            "literal",
	TokenSeparator:          "separator",
	TokenOptionalSeparator:  "optional-separator",
	TokenAnyBeforeDot:       "any-before-dot",
	TokenBuildVersion:       "build-version",
	TokenBuildVariant:       "build-variant",
	TokenAnyOptionalSymbols: "any-optional-symbols",
}

// PatternToken is one element of a tag naming pattern
type PatternToken struct {
	Kind TokenKind
	Text string
}

// Pattern is an ordered sequence of tokens describing a tag name
type Pattern []PatternToken

func Literal(text string) PatternToken {
	return PatternToken{Kind: TokenLiteral, Text: text}
}

func Separator(text string) PatternToken {
	return PatternToken{Kind: TokenSeparator, Text: text}
}

func OptionalSeparator(text string) PatternToken {
	return PatternToken{Kind: TokenOptionalSeparator, Text: text}
}

func AnyBeforeDot() PatternToken {
	return PatternToken{Kind: TokenAnyBeforeDot}
}

func BuildVersionPlaceholder() PatternToken {
	return PatternToken{Kind: TokenBuildVersion}
}

func BuildVariantPlaceholder() PatternToken {
	return PatternToken{Kind: TokenBuildVariant}
}

func AnyOptionalSymbols() PatternToken {
	return PatternToken{Kind: TokenAnyOptionalSymbols}
}

// DefaultPattern matches names such as "v1.0.12-debug" or
// "release/2.3.40-freeRelease-hotfix".
func DefaultPattern() Pattern {
	return Pattern{
		AnyBeforeDot(),
		BuildVersionPlaceholder(),
		Separator("-"),
		BuildVariantPlaceholder(),
		OptionalSeparator("-"),
		AnyOptionalSymbols(),
	}
}

// String renders the token in the form accepted by ParseToken
func (t PatternToken) String() string {
	name, ok := tokenNames[t.Kind]
	if !ok {
		return fmt.Sprintf("unknown(%d)", int(t.Kind))
	}
	switch t.Kind {
	case TokenLiteral, TokenSeparator, TokenOptionalSeparator:
		return name + ":" + t.Text
	default:
		return name
	}
}

// ParseToken parses the textual form of a token, e.g. "literal:v",
// "separator:-" or "build-version".
func ParseToken(s string) (PatternToken, error) {
	name, text, hasText := strings.Cut(s, ":")
	for kind, kindName := range tokenNames {
		if kindName != name {
			continue
		}
		switch kind {
		case TokenLiteral, TokenSeparator, TokenOptionalSeparator:
			if !hasText || text == "" {
				return PatternToken{}, &ConfigurationError{Reason: fmt.Sprintf("token %q requires text", name)}
			}
			return PatternToken{Kind: kind, Text: text}, nil
		default:
			if hasText {
				return PatternToken{}, &ConfigurationError{Reason: fmt.Sprintf("token %q takes no text", name)}
			}
			return PatternToken{Kind: kind}, nil
		}
	}
	return PatternToken{}, &ConfigurationError{Reason: fmt.Sprintf("unknown token %q", s)}
}

// ParsePattern parses a list of textual tokens
func ParsePattern(items []string) (Pattern, error) {
	pattern := make(Pattern, 0, len(items))
	for _, item := range items {
		token, err := ParseToken(item)
		if err != nil {
			return nil, err
		}
		pattern = append(pattern, token)
	}
	return pattern, nil
}

// CompiledPattern matches full tag names and extracts the version and
// variant captures.
type CompiledPattern struct {
	re         *regexp.Regexp
	versionIdx int
	variantIdx int
}

// CompilePattern compiles a pattern. A nil pattern compiles DefaultPattern.
// The pattern must contain exactly one build version placeholder and
// exactly one build variant placeholder.
func CompilePattern(p Pattern) (*CompiledPattern, error) {
	if p == nil {
		p = DefaultPattern()
	}

	var versions, variants int
	var expr strings.Builder
	expr.WriteString("^")
	for i, token := range p {
		switch token.Kind {
		case TokenLiteral, TokenSeparator:
			if token.Text == "" {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("token %d (%s) has empty text", i, tokenNames[token.Kind])}
			}
			expr.WriteString(regexp.QuoteMeta(token.Text))
		case TokenOptionalSeparator:
			if token.Text == "" {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("token %d (%s) has empty text", i, tokenNames[token.Kind])}
			}
			expr.WriteString("(?:" + regexp.QuoteMeta(token.Text) + ")?")
		case TokenAnyBeforeDot:
			expr.WriteString(`[^.]*?`)
		case TokenBuildVersion:
			versions++
			expr.WriteString(`(?P<version>\d+(?:\.\d+)*)`)
		case TokenBuildVariant:
			variants++
			expr.WriteString(`(?P<variant>[A-Za-z0-9_]+)`)
		case TokenAnyOptionalSymbols:
			expr.WriteString(`.*`)
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("token %d has unknown kind %d", i, int(token.Kind))}
		}
	}
	expr.WriteString("$")

	if versions != 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("expected exactly one build version placeholder, found %d", versions)}
	}
	if variants != 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("expected exactly one build variant placeholder, found %d", variants)}
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	return &CompiledPattern{
		re:         re,
		versionIdx: re.SubexpIndex("version"),
		variantIdx: re.SubexpIndex("variant"),
	}, nil
}

// Match matches the full tag name and returns the raw version capture
// (version and build number) and the variant.
func (c *CompiledPattern) Match(name string) (string, string, bool) {
	m := c.re.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[c.versionIdx], m[c.variantIdx], true
}

// String returns the regular expression the pattern compiled to
func (c *CompiledPattern) String() string {
	return c.re.String()
}
