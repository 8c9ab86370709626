// Package usecase turns free-text model answers into short symptom lists and
// decides whether a candidate list is acceptable.
package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSegmentLength drops comma-separated pieces that are really sentences
const MaxSegmentLength = 50

var (
	// "used for", "treatment of", ...
	connectorPattern = regexp.MustCompile(`(?i)\b(?:used (?:in|for|to)|treatment of|indicated for|helps with|treats)\b`)

	// "such as", "e.g.", ...
	markerPattern = regexp.MustCompile(`(?i)\b(?:such as|including|like)\b|\be\.g\.|\bi\.e\.`)

	parenPattern = regexp.MustCompile(`\([^)]*\)`)

	// Leading "it is", "this medicine may also be", ...
	demonstrativePattern = regexp.MustCompile(`(?i)^(?:it|this)\b(?:\s+(?:medicine|medication|drug|tablet|product))?(?:\s+(?:is|are|can|may|might|will|could))?(?:\s+(?:be|also))*\b`)

	listBreakPattern = regexp.MustCompile(`[\n\r;]+`)

	// What follows a stripped demonstrative is prose, not a symptom, when it
	// carries a preposition, relative pronoun, adverb or participle
	clausePattern = regexp.MustCompile(`(?i)\b(?:for|to|against|by|with|when|which|that|who|\w+ly|\w+ed)\b`)
)

// Clean normalizes raw model output into a comma-separated symptom list.
// Unusable input degrades to a shorter (possibly empty) string, never an error.
func Clean(text string) string {
	text = connectorPattern.ReplaceAllString(text, "")
	text = markerPattern.ReplaceAllString(text, "")
	text = parenPattern.ReplaceAllString(text, "")
	text = listBreakPattern.ReplaceAllString(text, ",")

	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := cleanSegment(part)
		if n := utf8.RuneCountInString(item); n == 0 || n >= MaxSegmentLength {
			continue
		}
		items = append(items, item)
	}

	return strings.Join(items, ", ")
}

func cleanSegment(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `-*•."'`))
	if loc := demonstrativePattern.FindStringIndex(s); loc != nil && loc[1] > 0 {
		s = s[loc[1]:]
		if clausePattern.MatchString(s) {
			return ""
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
