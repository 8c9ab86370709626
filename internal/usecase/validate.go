package usecase

import (
	"regexp"
	"unicode/utf8"
)

// MaxLength is the longest usecase string accepted as a list
const MaxLength = 150

var sentencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:is|are|was|were|will|should|could|would|can|may|might|must|has|have|had|does|do|did)\b`),
	regexp.MustCompile(`(?i)\b(?:treat|use|help|provide|reduce|prevent|manage|relieve|alleviate)\b`),
}

// Valid reports whether s looks like a symptom list rather than prose
func Valid(s string) bool {
	if utf8.RuneCountInString(s) > MaxLength {
		return false
	}
	for _, p := range sentencePatterns {
		if p.MatchString(s) {
			return false
		}
	}
	return true
}
