package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinKeywordLength is the shortest token kept as a keyword.
const MinKeywordLength = 3

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// French
		"le", "la", "les", "un", "une", "des", "du", "de", "et", "est", "en",
		"que", "qui", "dans", "pour", "sur", "avec", "ce", "cette", "ces",
		"son", "sa", "ses", "au", "aux", "par", "pas", "plus", "moins",
		// English
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "must", "and", "or", "but", "if", "then",
		"than", "so", "as", "of", "to", "for", "with", "on", "at", "by",
		"from", "this", "that", "these", "those", "what", "which", "who",
	} {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether w is ignored during keyword extraction.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Normalize decomposes text, drops combining marks and lowercases it, so
// "Résiliation" and "resiliation" compare equal. It is idempotent.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

// Tokenize returns the maximal runs of ASCII letters and digits in the
// normalised text.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	var tokens []string
	start := -1
	for i := 0; i < len(normalized); i++ {
		if isASCIIAlnum(normalized[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, normalized[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, normalized[start:])
	}
	return tokens
}

// Keywords keeps the tokens of text that are long enough and not stop words.
// Order and duplicates are preserved.
func Keywords(text string) []string {
	var keywords []string
	for _, tok := range Tokenize(text) {
		if len(tok) < MinKeywordLength || IsStopWord(tok) {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

func isASCIIAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
