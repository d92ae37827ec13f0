// Package dedup implements duplicate detection and record merging for
// assignment candidates: title normalization, the three-tier matcher, and
// the field-level merge that feeds the change summary.
package dedup

import (
	"regexp"
	"strings"
)

var (
	punctPattern      = regexp.MustCompile(`[()\[\]{}_:;,.!?"'/\\|]+`)
	hyphenSepPattern  = regexp.MustCompile(`\s+-\s+|-{2,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeTitle canonicalizes a title for comparison. It lower-cases,
// strips punctuation that varies between observations of the same title
// (parentheses, brackets, separator hyphens) and collapses whitespace,
// while keeping numeric distinctions intact so "Activity 1" never collides
// with "Activity 2". It is total and idempotent.
func NormalizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return ""
	}
	// Separator hyphens become spaces; in-word hyphens ("e-mail") survive.
	s = hyphenSepPattern.ReplaceAllString(s, " ")
	s = punctPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCourse canonicalizes a course name or code for scoping
// comparisons. Course codes are short and rarely noisy, so this is just
// case and whitespace folding.
func NormalizeCourse(course string) string {
	return strings.ToLower(strings.TrimSpace(course))
}

// Signature builds the normalized-exact comparison key for a record:
// normalized title plus the course-code scope.
func Signature(title, courseCode string) string {
	return NormalizeTitle(title) + "|" + NormalizeCourse(courseCode)
}
