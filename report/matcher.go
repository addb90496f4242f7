package report

import (
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Matcher recognizes {{token}} spans for a fixed token set. Tokens are
// compared as exact, case-sensitive strings, so "scores.pwa" never matches
// inside "scores.pwa.score".
type Matcher struct {
	tokens map[string]struct{}
}

// Match is one recognized placeholder in a source string. Start and End are
// byte offsets of the whole {{token}} span.
type Match struct {
	Token      string
	Start, End int
}

// CompileMatcher builds a matcher for tokens. Order and duplicates in the
// input do not affect the result.
func CompileMatcher(tokens []string) *Matcher {
	m := &Matcher{tokens: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		m.tokens[t] = struct{}{}
	}
	return m
}

// Has reports whether token belongs to the matcher's set.
func (m *Matcher) Has(token string) bool {
	_, ok := m.tokens[token]
	return ok
}

// FindAll scans src left to right and returns every placeholder span. A span
// with placeholder syntax whose name is not in the set fails with
// ErrUnknownToken. Braces around anything that is not a valid token name are
// ordinary text.
func (m *Matcher) FindAll(src string) ([]Match, error) {
	var matches []Match
	pos := 0
	for {
		open := strings.Index(src[pos:], openDelim)
		if open < 0 {
			return matches, nil
		}
		start := pos + open
		nameStart := start + len(openDelim)
		closeAt := strings.Index(src[nameStart:], closeDelim)
		if closeAt < 0 {
			return matches, nil
		}
		name := src[nameStart : nameStart+closeAt]
		end := nameStart + closeAt + len(closeDelim)

		if !isTokenName(name) {
			// "{{{x}}}" and similar: retry one byte further in.
			pos = start + 1
			continue
		}
		if !m.Has(name) {
			return nil, newRenderError("", name, ErrUnknownToken)
		}
		matches = append(matches, Match{Token: name, Start: start, End: end})
		pos = end
	}
}

// Replace substitutes every placeholder in src with the output of resolve,
// in a single pass. Replacement text is copied verbatim and never rescanned.
func (m *Matcher) Replace(src string, resolve func(token string) (string, error)) (string, error) {
	matches, err := m.FindAll(src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, mt := range matches {
		val, err := resolve(mt.Token)
		if err != nil {
			return "", err
		}
		b.WriteString(src[last:mt.Start])
		b.WriteString(val)
		last = mt.End
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

func isTokenName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
