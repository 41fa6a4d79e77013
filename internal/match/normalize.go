package match

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	regexMeta     = regexp.MustCompile(`[\\.+*?()|\[\]{}^$]`)
)

// Pattern is a case-insensitive matcher over question text. Plain words are
// matched as substrings; anything with regex metacharacters is compiled.
type Pattern struct {
	source  string
	literal string
	re      *regexp.Regexp
}

// Compile builds a Pattern from a rule expression such as "budget|funding".
func Compile(expr string) (Pattern, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Pattern{}, errors.New("empty pattern")
	}
	if !regexMeta.MatchString(expr) {
		return Literal(expr), nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{source: expr, re: re}, nil
}

// MustCompile is Compile for expressions known at build time.
func MustCompile(expr string) Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic("match: compile " + expr + ": " + err.Error())
	}
	return p
}

// Literal returns a substring matcher.
func Literal(text string) Pattern {
	return Pattern{source: text, literal: NormalizeText(text)}
}

// Match reports whether text satisfies the pattern. Text is normalized first so
// line breaks and repeated spaces in authored questions do not defeat a rule.
func (p Pattern) Match(text string) bool {
	text = NormalizeText(text)
	switch {
	case p.re != nil:
		return p.re.MatchString(text)
	case p.literal != "":
		return strings.Contains(text, p.literal)
	default:
		return false
	}
}

// IsZero reports whether the pattern was never set.
func (p Pattern) IsZero() bool {
	return p.re == nil && p.literal == ""
}

func (p Pattern) String() string {
	return p.source
}

// NormalizeText lowercases and collapses whitespace so answers and question text
// compare predictably.
func NormalizeText(input string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), " ")
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ContainsFold reports whether haystack contains needle ignoring case.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
