package schedule

import (
	"regexp"
	"strings"

	"coursegrid/internal/model"
)

// Course codes look like "CSI 2110" or "MAT1341": a short uppercase subject
// prefix followed by a four-digit number. Extraction from free text is
// brittle by nature, so it stays behind this one narrow function; grouping
// and statistics only ever see the normalized code.
var courseCodeRe = regexp.MustCompile(`\b([A-Z]{2,4}) ?([0-9]{4})\b`)

// ExtractCourseCode pulls the first course code out of text, normalized to
// "ABC 1234". ok is false when no code is present; such records are never
// grouped with others and never filtered by the visibility set.
func ExtractCourseCode(text string) (string, bool) {
	m := courseCodeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + " " + m[2], true
}

// RecordCourseCode derives the code for a record, checking the title first
// and falling back to the description.
func RecordCourseCode(rec model.EventRecord) (string, bool) {
	if code, ok := ExtractCourseCode(rec.Title); ok {
		return code, true
	}
	if strings.TrimSpace(rec.Description) != "" {
		return ExtractCourseCode(rec.Description)
	}
	return "", false
}
