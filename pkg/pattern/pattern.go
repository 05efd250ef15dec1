// Package pattern implements the search-pattern matching catalog functions
// apply to database, table, and column name arguments.
package pattern

import (
	"regexp"
	"strings"
)

// Matcher matches names against a catalog-function argument. In pattern
// mode the argument is a SQL LIKE pattern (% and _ wildcards, backslash
// escapes); in literal mode it is compared byte for byte. An empty
// argument matches everything in both modes.
type Matcher struct {
	literal string
	re      *regexp.Regexp
	all     bool
}

// Literal builds a matcher that requires exact equality.
func Literal(arg string) *Matcher {
	if arg == "" {
		return &Matcher{all: true}
	}
	return &Matcher{literal: arg}
}

// Compile builds a matcher from a SQL search pattern. % matches any run of
// characters, _ matches exactly one, and a backslash escapes either
// wildcard. The pattern is anchored: it must cover the whole name.
func Compile(arg string) (*Matcher, error) {
	if arg == "" {
		return &Matcher{all: true}, nil
	}

	var sb strings.Builder
	sb.WriteString(`\A`)
	escaped := false
	for _, r := range arg {
		if escaped {
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			sb.WriteString(`.*`)
		case '_':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		sb.WriteString(regexp.QuoteMeta(`\`))
	}
	sb.WriteString(`\z`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re}, nil
}

// Matches reports whether name satisfies the matcher.
func (m *Matcher) Matches(name string) bool {
	if m.all {
		return true
	}
	if m.re != nil {
		return m.re.MatchString(name)
	}
	return m.literal == name
}

// MatchesAll reports whether the matcher accepts every name, which lets
// callers skip server-side filtering entirely.
func (m *Matcher) MatchesAll() bool {
	if m.all {
		return true
	}
	return m.re != nil && m.re.String() == `\A.*\z`
}
