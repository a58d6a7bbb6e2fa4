package jobparse

import (
	"regexp"
	"strings"
)

// Fields holds the values derived from the raw description by pattern and
// keyword matching alone.
type Fields struct {
	Title        string
	Requirements string
	Salary       string
}

// salaryPattern is permissive on purpose and also matches non-salary dollar
// amounts such as "$500 signing bonus".
var salaryPattern = regexp.MustCompile(`(?i)\$\d{2,3}(?:,\d{3})?(?:K)?(?:\s*-\s*\$\d{2,3}(?:,\d{3})?(?:K)?)?`)

var requirementKeywords = []string{"requirement", "responsibility", "duties", "developing", "analyzing"}

var titlePrefixes = []string{"Role:", "Title:"}

// Salary returns the first dollar amount or range found in text, or "".
func Salary(text string) string {
	return strings.TrimSpace(salaryPattern.FindString(text))
}

// Title returns the last line that mentions "role:" or "title", with a leading
// "Role:" or "Title:" label removed.
func Title(text string) string {
	return scan(text).Title
}

// Requirements joins every requirement-looking line in original order.
func Requirements(text string) string {
	return scan(text).Requirements
}

// Heuristics runs all three detectors over text.
func Heuristics(text string) Fields {
	f := scan(text)
	f.Salary = Salary(text)
	return f
}

// scan walks the lines once. A line taken as a title candidate is never
// also collected as a requirement.
func scan(text string) Fields {
	var f Fields
	var reqs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lower := strings.ToLower(line)
		switch {
		case isTitleLine(lower):
			f.Title = stripTitlePrefix(strings.TrimSpace(line))
		case containsAny(lower, requirementKeywords):
			reqs = append(reqs, strings.TrimSpace(line))
		}
	}
	f.Requirements = strings.Join(reqs, " ")
	return f
}

func isTitleLine(lower string) bool {
	return strings.Contains(lower, "role:") || strings.Contains(lower, "title")
}

func stripTitlePrefix(line string) string {
	for _, p := range titlePrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p))
		}
	}
	return line
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
