// Package codes implements prefix normalization and code matching.
// A configured prefix like "item", "ITEM-" or "video code" is normalized
// into canonical tokens and compiled into a single matcher that finds
// occurrences such as "item_12345" or "Video Code 99887" in text.
package codes

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrEmptyPrefix reports a prefix with no usable tokens.
	ErrEmptyPrefix = errors.New("prefix has no usable tokens")
	// ErrNumericToken reports a prefix token made of digits only.
	ErrNumericToken = errors.New("prefix token is purely numeric")
)

// Prefix is a validated code prefix with its compiled matcher.
// The zero value is unusable; always construct via Normalize.
type Prefix struct {
	tokens    []string
	canonical string
	re        *regexp.Regexp
}

// Normalize validates and canonicalizes a configured prefix.
// The input is split on whitespace, underscores, and hyphens; tokens are
// uppercased and joined with hyphens. A prefix without tokens or with a
// purely numeric token is rejected.
func Normalize(raw string) (Prefix, error) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-'
	})
	if len(tokens) == 0 {
		return Prefix{}, fmt.Errorf("prefix %q: %w", raw, ErrEmptyPrefix)
	}

	upper := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isDigits(tok) {
			return Prefix{}, fmt.Errorf("prefix %q token %q: %w", raw, tok, ErrNumericToken)
		}
		upper = append(upper, strings.ToUpper(tok))
	}

	// Tokens may be separated by any run of spaces, underscores, or
	// hyphens in the source text, including none at all.
	parts := make([]string, 0, len(upper))
	for _, tok := range upper {
		parts = append(parts, regexp.QuoteMeta(tok))
	}
	pattern := "(?i)" + strings.Join(parts, `[\s_-]*`) + `[\s_-]*(\d+)`

	return Prefix{
		tokens:    upper,
		canonical: strings.Join(upper, "-"),
		re:        regexp.MustCompile(pattern),
	}, nil
}

// String returns the canonical display form, e.g. "VIDEO-CODE".
// Normalizing the display form yields the same Prefix.
func (p Prefix) String() string {
	return p.canonical
}

// Canonical builds the canonical code for a digit run, e.g. "ITEM-12345".
func (p Prefix) Canonical(digits string) string {
	return p.canonical + "-" + digits
}

// Match is one occurrence of the prefix grammar in a text.
type Match struct {
	Raw    string // matched text as it appears
	Digits string // captured digit run
	Start  int    // byte offset of the match
	End    int    // byte offset just past the match
}

// FindAll returns every non-overlapping occurrence in text, leftmost
// first. The earliest-starting match wins on overlap.
func (p Prefix) FindAll(text string) []Match {
	idx := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(idx))
	for _, m := range idx {
		matches = append(matches, Match{
			Raw:    text[m[0]:m[1]],
			Digits: text[m[2]:m[3]],
			Start:  m[0],
			End:    m[1],
		})
	}
	return matches
}

// Recanonicalize maps an externally produced code string back to
// canonical form. The full prefix grammar is tried first; failing that,
// the longest digit run is adopted (the later run wins ties). Returns
// false when no digits exist at all.
func (p Prefix) Recanonicalize(raw string) (string, bool) {
	if m := p.re.FindStringSubmatchIndex(raw); m != nil {
		return p.Canonical(raw[m[2]:m[3]]), true
	}
	if run, ok := LongestDigitRun(raw); ok {
		return p.Canonical(run), true
	}
	return "", false
}

// LongestDigitRun returns the longest run of ASCII digits in s.
// On equal lengths the later run wins. Returns false if s has no digits.
func LongestDigitRun(s string) (string, bool) {
	best := ""
	i := 0
	for i < len(s) {
		if s[i] < '0' || s[i] > '9' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j-i >= len(best) {
			best = s[i:j]
		}
		i = j
	}
	return best, best != ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
