package guides

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug length bounds, inclusive.
const (
	MinSlugLen = 3
	MaxSlugLen = 50
)

// ErrInvalidSlug is returned for slugs that fail ValidateSlug.
var ErrInvalidSlug = errors.New("invalid slug")

// ValidateSlug checks that s is non-empty, made only of ASCII letters,
// digits, '-' and '_', and between MinSlugLen and MaxSlugLen long.
func ValidateSlug(s string) error {
	if s == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidSlug)
	}
	if n := len(s); n < MinSlugLen || n > MaxSlugLen {
		return fmt.Errorf("%w: length must be between %d and %d", ErrInvalidSlug, MinSlugLen, MaxSlugLen)
	}
	for i := 0; i < len(s); i++ {
		if !isSlugByte(s[i]) {
			return fmt.Errorf("%w: %q may only contain letters, digits, '-' and '_'", ErrInvalidSlug, s)
		}
	}
	return nil
}

func isSlugByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

var lower = cases.Lower(language.Und)

// Slugify derives a slug from a free-form title. Accents are folded to
// ASCII, everything is lower-cased, and runs of other characters become a
// single '-'. The result always passes ValidateSlug.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	folded = lower.String(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := clip(strings.TrimRight(b.String(), "-"), MaxSlugLen)

	switch {
	case s == "":
		return "guide"
	case len(s) < MinSlugLen:
		return "guide-" + s
	}
	return s
}

// UniqueSlug returns base if it is free, otherwise the first of base-1,
// base-2, ... for which taken reports false. base is shortened as needed
// so that candidates stay within MaxSlugLen.
func UniqueSlug(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 1; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		cand := clip(base, MaxSlugLen-len(suffix)) + suffix
		if !taken(cand) {
			return cand
		}
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}
