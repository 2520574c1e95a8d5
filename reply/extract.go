// Package reply turns the raw text of one model completion into a typed
// Outcome: a SQL query, a chart specification, prose, or prose plus SQL.
//
// Parsing is a pure function of the input string. The compiled patterns in
// this file are immutable, so Parse is safe for concurrent use.
package reply

import (
	"regexp"
	"strings"
)

// Kind identifies where a candidate fragment was found.
type Kind int

const (
	KindTaggedSQL Kind = iota // <generated_sql>…</generated_sql>
	KindResponse              // <response format="X">…</response>
	KindFencedSQL             // ```sql … ```
)

func (k Kind) String() string {
	switch k {
	case KindTaggedSQL:
		return "generated_sql"
	case KindResponse:
		return "response"
	case KindFencedSQL:
		return "fenced_sql"
	default:
		return "unknown"
	}
}

// Fragment is a span of the reply recognized as one of the known kinds.
// Format is only set for KindResponse.
type Fragment struct {
	Kind   Kind
	Format Format
	Text   string
}

// Candidates is everything the extractor found in one reply. A nil
// fragment means no match for that kind.
type Candidates struct {
	TaggedSQL *Fragment
	Response  *Fragment
	FencedSQL *Fragment

	// Residual is the whole reply with every recognized tag marker removed,
	// trimmed. Fenced blocks are still present.
	Residual string
}

var (
	taggedSQLPattern = regexp.MustCompile(`<generated_sql>([\s\S]*?)</generated_sql>`)
	responsePattern  = regexp.MustCompile(`<response format="(.*?)">([\s\S]*?)</response>`)
	fencedSQLPattern = regexp.MustCompile("```sql\\s*([\\s\\S]*?)\\s*```")
	tagMarkerPattern = regexp.MustCompile(`</?generated_sql>|<response format=".*?">|</response>`)
)

// Extract scans raw for every known fragment kind. Each kind is searched
// independently and only its first occurrence counts.
func Extract(raw string) Candidates {
	var c Candidates
	if f, ok := findTaggedSQL(raw); ok {
		c.TaggedSQL = &f
	}
	if f, ok := findResponse(raw); ok {
		c.Response = &f
	}
	if f, ok := findFencedSQL(raw); ok {
		c.FencedSQL = &f
	}
	c.Residual = stripTagMarkers(raw)
	return c
}

// findTaggedSQL matches the first closed generated_sql pair with a
// non-empty body. A whitespace-only body still counts as a tag; the
// classifier trims it to no SQL. The body is returned untrimmed.
func findTaggedSQL(raw string) (Fragment, bool) {
	m := taggedSQLPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return Fragment{}, false
	}
	return Fragment{Kind: KindTaggedSQL, Text: m[1]}, true
}

// findResponse matches the first closed response tag that declares a
// non-empty format.
func findResponse(raw string) (Fragment, bool) {
	m := responsePattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return Fragment{}, false
	}
	return Fragment{Kind: KindResponse, Format: Format(m[1]), Text: m[2]}, true
}

// findFencedSQL matches the first ```sql block whose body is not blank.
func findFencedSQL(raw string) (Fragment, bool) {
	m := fencedSQLPattern.FindStringSubmatch(raw)
	if m == nil {
		return Fragment{}, false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return Fragment{}, false
	}
	return Fragment{Kind: KindFencedSQL, Text: body}, true
}

func stripTagMarkers(raw string) string {
	return strings.TrimSpace(tagMarkerPattern.ReplaceAllString(raw, ""))
}

// stripFencedSQL removes every ```sql block, not just the first.
func stripFencedSQL(s string) string {
	return strings.TrimSpace(fencedSQLPattern.ReplaceAllString(s, ""))
}
