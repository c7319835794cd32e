package search

import (
	"regexp"
	"strings"
)

const (
	maxAnswerSentences   = 3
	fallbackSentences    = 2
	fallbackContentRunes = 500
)

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// ExtractAnswer picks the span of content returned to the caller: sentences
// containing a keyword first, then the opening sentences, then a raw prefix.
func ExtractAnswer(keywords []string, content string) string {
	var sentences, relevant []string
	for _, s := range sentenceSplit.Split(content, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
		if containsAny(Normalize(s), keywords) {
			relevant = append(relevant, s)
		}
	}

	if len(relevant) > 0 {
		return joinSentences(relevant, maxAnswerSentences)
	}
	if len(sentences) > 0 {
		return joinSentences(sentences, fallbackSentences)
	}

	r := []rune(content)
	if len(r) > fallbackContentRunes {
		r = r[:fallbackContentRunes]
	}
	return string(r)
}

func joinSentences(sentences []string, limit int) string {
	if len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return strings.Join(sentences, ". ") + "."
}

func containsAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// matchScore is the fraction of keywords found as substrings of the
// normalised content.
func matchScore(keywords []string, normalizedContent string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(normalizedContent, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}
