package sequence

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRule_Substitute(t *testing.T) {
	rule, err := CompileRule(`%t:s/\s\s+/ /`)
	require.NoError(t, err)

	assert.IsType(t, &SubstituteRule{}, rule)
	assert.Equal(t, "%t", rule.Token())
	assert.Equal(t, `%t:s/\s\s+/ /`, rule.String())
	assert.Equal(t, "a b c", rule.Apply("a   b  \t c"))
	assert.Equal(t, "unchanged", rule.Apply("unchanged"))
}

func TestCompileRule_Match(t *testing.T) {
	tests := []struct {
		name     string
		rule     string
		input    string
		expected string
	}{
		{
			name:     "empty mode keeps word characters and spaces",
			rule:     `%t:/\w|\s/`,
			input:    "Hello, World!",
			expected: "Hello World",
		},
		{
			name:     "explicit m mode",
			rule:     `%t:m/\d+/`,
			input:    "a1b22c",
			expected: "122",
		},
		{
			name:     "no match gives empty string",
			rule:     `%t:/\d/`,
			input:    "abc",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := CompileRule(tt.rule)
			require.NoError(t, err)
			assert.IsType(t, &MatchRule{}, rule)
			assert.Equal(t, tt.expected, rule.Apply(tt.input))
		})
	}
}

func TestCompileRule_CaseInsensitive(t *testing.T) {
	sensitive, err := CompileRule(`%t:s/foo/bar/`)
	require.NoError(t, err)
	insensitive, err := CompileRule(`%t:s/foo/bar/i`)
	require.NoError(t, err)

	assert.Equal(t, "bar FOO Foo", sensitive.Apply("foo FOO Foo"))
	assert.Equal(t, "bar bar bar", insensitive.Apply("foo FOO Foo"))
	assert.Equal(t, insensitive.Apply("foo foo foo"), insensitive.Apply("FoO fOo FOO"))
}

func TestCompileRule_GlobalModifier(t *testing.T) {
	plain, err := CompileRule(`%t:s/\s+/_/`)
	require.NoError(t, err)
	global, err := CompileRule(`%t:s/\s+/_/gi`)
	require.NoError(t, err)

	assert.Equal(t, "a_b_c", global.Apply("a  b\tc"))
	assert.Equal(t, plain.Apply("a  b\tc"), global.Apply("a  b\tc"))
}

func TestCompileRule_GroupReferences(t *testing.T) {
	dollar, err := CompileRule(`%t:s/(\w+) (\w+)/$2 $1/`)
	require.NoError(t, err)
	backslash, err := CompileRule(`%t:s/(\w+) (\w+)/\2 \1/`)
	require.NoError(t, err)

	assert.Equal(t, "world hello", dollar.Apply("hello world"))
	assert.Equal(t, "world hello", backslash.Apply("hello world"))
}

func TestCompileRule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{name: "substitute without replacement", rule: `%t:s/abc/`},
		{name: "not a rule", rule: "garbage"},
		{name: "missing sequence", rule: `:s/a/b/`},
		{name: "long sequence", rule: `%tt:s/a/b/`},
		{name: "unknown mode", rule: `%t:x/abc/`},
		{name: "unknown modifier", rule: `%t:s/a/b/x`},
		{name: "bad regular expression", rule: `%t:/(/`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := CompileRule(tt.rule)
			require.Error(t, err)
			assert.Nil(t, rule)
			assert.True(t, errors.Is(err, ErrInvalidRule))
			assert.Contains(t, err.Error(), tt.rule)
		})
	}
}

func TestCompileRules_AggregatesErrors(t *testing.T) {
	rules, err := CompileRules([]string{
		`%t:s/\s\s+/ /`,
		`%t:s/abc/`,
		`%e:/(/`,
	})

	require.Error(t, err)
	assert.Nil(t, rules)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), `%t:s/abc/`)
	assert.Contains(t, err.Error(), `%e:/(/`)
}

func TestCompileRules_KeepsOrder(t *testing.T) {
	rules, err := CompileRules([]string{`%t:s/a/b/`, `%e:s/x/y/`, `%t:s/b/c/`})
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, `%t:s/a/b/`, rules[0].String())
	assert.Equal(t, `%e:s/x/y/`, rules[1].String())
	assert.Equal(t, `%t:s/b/c/`, rules[2].String())
}

func TestMustCompileRules_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustCompileRules([]string{"garbage"})
	})
}
