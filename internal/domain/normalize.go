package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes characters and drops combining marks,
// so "Pokémon" and "Pokemon" normalize identically.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	// Bracketed annotations carry edition/region/scene tags, e.g.
	// "[GOG]", "(RUS/ENG)", "(2019)". They never identify the game itself.
	bracketedTagRe = regexp.MustCompile(`[\[(][^)\]]*[)\]]`)

	// "... Edition" boilerplate appended by stores and repackers.
	editionRe = regexp.MustCompile(`(the\s+|digital\s+)?(goty|deluxe|standard|ultimate|definitive|enhanced|collector'?s|premium|digital|limited|game\s+of\s+the\s+year|reloaded|[0-9]{4})\s+edition`)

	directorsCutRe = regexp.MustCompile(`director'?s\s+cut`)

	duplicateSpacesRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeTitle turns a raw release or game title into the canonical key
// used for dedup and search indexing. It is pure, total and idempotent:
// garbage in yields garbage out, never an error.
//
// Any change to these rules invalidates every existing index generation,
// so callers must trigger a full rebuild rather than patch incrementally.
func NormalizeTitle(title string) string {
	s := normalizePass(title)

	// Stripping a tag can uncover another strippable phrase, so repeat
	// until the title is stable. Each extra pass strictly shrinks the
	// string, so this terminates.
	for {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizePass(title string) string {
	s := strings.ToLower(title)

	if stripped, _, err := transform.String(stripAccents, s); err == nil {
		s = stripped
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = bracketedTagRe.ReplaceAllString(s, " ")
	s = editionRe.ReplaceAllString(s, " ")
	s = directorsCutRe.ReplaceAllString(s, " ")
	s = keepAlphanumeric(s)
	s = duplicateSpacesRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// keepAlphanumeric drops everything but ASCII letters, digits and spaces.
func keepAlphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == ' ':
			return r
		default:
			return -1
		}
	}, s)
}

// TitleTokens splits a normalized title into its search tokens.
func TitleTokens(normalized string) []string {
	return strings.Fields(normalized)
}
