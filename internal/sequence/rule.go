package sequence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidRule is wrapped by every rule compilation failure
var ErrInvalidRule = errors.New("invalid rewrite rule")

var (
	substituteSyntax = regexp.MustCompile(`^(%\w):s/(.*)/(.*)/(.*)$`)
	matchSyntax      = regexp.MustCompile(`^(%\w):(.*)/(.*)/(.*)$`)

	// \1 style group references are rewritten to ${1}
	backrefPattern = regexp.MustCompile(`\\(\d)`)
)

// Rule is a compiled rewrite rule. It is either a *MatchRule or a
// *SubstituteRule.
type Rule interface {
	// Token returns the sequence the rule is keyed by, e.g. "%t"
	Token() string

	// Apply rewrites a token value
	Apply(value string) string

	// String returns the rule as it was written
	String() string

	rule()
}

// MatchRule keeps the concatenation of every non-overlapping match
type MatchRule struct {
	token  string
	source string
	re     *regexp.Regexp
}

func (r *MatchRule) Token() string  { return r.token }
func (r *MatchRule) String() string { return r.source }
func (*MatchRule) rule()            {}

// Apply returns all matches of the pattern in value joined together, or an
// empty string if nothing matches
func (r *MatchRule) Apply(value string) string {
	matches := r.re.FindAllString(value, -1)
	return strings.Join(matches, "")
}

// SubstituteRule replaces every non-overlapping match with a replacement
type SubstituteRule struct {
	token       string
	source      string
	replacement string
	re          *regexp.Regexp
}

func (r *SubstituteRule) Token() string  { return r.token }
func (r *SubstituteRule) String() string { return r.source }
func (*SubstituteRule) rule()            {}

// Apply replaces all matches in value. Group references in the replacement
// ($1, ${name}) are expanded.
func (r *SubstituteRule) Apply(value string) string {
	return r.re.ReplaceAllString(value, r.replacement)
}

// CompileRule parses a rule of the form %X:MODE/PATTERN/[REPLACEMENT/]MODIFIERS.
//
// MODE is "s" for substitute, or "m" or empty for match. The only modifier
// is "i" which makes the pattern case-insensitive.
func CompileRule(s string) (Rule, error) {
	if m := substituteSyntax.FindStringSubmatch(s); m != nil {
		re, err := compilePattern(s, m[2], m[4])
		if err != nil {
			return nil, err
		}
		return &SubstituteRule{
			token:       m[1],
			source:      s,
			replacement: backrefPattern.ReplaceAllString(m[3], `$${$1}`),
			re:          re,
		}, nil
	}

	m := matchSyntax.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %s: invalid syntax: must be either m// or s/// operation", ErrInvalidRule, s)
	}

	switch m[2] {
	case "", "m":
	case "s":
		return nil, fmt.Errorf("%w: %s: invalid s/// operation syntax: missing replacement", ErrInvalidRule, s)
	default:
		return nil, fmt.Errorf("%w: %s: unknown operation mode %q", ErrInvalidRule, s, m[2])
	}

	re, err := compilePattern(s, m[3], m[4])
	if err != nil {
		return nil, err
	}
	return &MatchRule{token: m[1], source: s, re: re}, nil
}

// CompileRules compiles every rule, reporting all failures at once
func CompileRules(rules []string) ([]Rule, error) {
	var result *multierror.Error
	compiled := make([]Rule, 0, len(rules))

	for _, s := range rules {
		r, err := CompileRule(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		compiled = append(compiled, r)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return compiled, nil
}

// MustCompileRules is like CompileRules but panics on error
func MustCompileRules(rules []string) []Rule {
	compiled, err := CompileRules(rules)
	if err != nil {
		panic(err)
	}
	return compiled
}

func compilePattern(rule, pattern, modifiers string) (*regexp.Regexp, error) {
	flags := ""
	for _, c := range modifiers {
		switch c {
		case 'i':
			flags = "(?i)"
		case 'g':
			// substitutions always replace every match
		default:
			return nil, fmt.Errorf("%w: %s: unknown modifier %q", ErrInvalidRule, rule, c)
		}
	}

	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, rule, err)
	}
	return re, nil
}
