package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Condition is a normalized measurement condition label.
type Condition string

// Conditions that form a cohort. Any other normalized value is carried on the
// record but belongs to no cohort.
const (
	Pre  Condition = "Pre"
	Post Condition = "Post"
)

// conditionCaser title-cases condition labels. A cases.Caser is stateful, so
// each ingestion builds its own.
func conditionCaser() cases.Caser {
	return cases.Title(language.Und)
}

// NormalizeCondition trims surrounding whitespace and title-cases s, so
// " pre ", "PRE" and "Pre" all become "Pre".
func NormalizeCondition(s string) Condition {
	c := conditionCaser()
	return normalizeWith(c, s)
}

func normalizeWith(c cases.Caser, s string) Condition {
	return Condition(c.String(strings.TrimSpace(s)))
}

// Slug returns the lower-case form used in URLs and file names.
func (c Condition) Slug() string {
	return strings.ToLower(string(c))
}

// ParseCohort maps a URL slug ("pre", "post") to its cohort condition.
func ParseCohort(slug string) (Condition, bool) {
	switch NormalizeCondition(slug) {
	case Pre:
		return Pre, true
	case Post:
		return Post, true
	}
	return "", false
}
