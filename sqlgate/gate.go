// Package sqlgate decides whether a SQL string may be sent to the database.
//
// The check is a whole-word, case-insensitive keyword denylist. It does not
// parse SQL: a denied word inside a string literal or identifier is still
// rejected, and anything the list does not name passes. Callers that execute
// admitted SQL should also run it in a read-only transaction.
package sqlgate

import (
	"fmt"
	"regexp"
	"strings"
)

// Denylist is the set of statement verbs that make a query inadmissible.
var Denylist = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate",
	"grant", "revoke", "merge", "call", "exec", "execute",
}

var denyPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(Denylist, "|") + `)\b`)

// Verdict is the result of admitting one SQL string.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Keyword string `json:"keyword,omitempty"`
}

// Admit checks sql against the denylist. The reason names the first denied
// keyword in the text, lower-cased.
func Admit(sql string) Verdict {
	m := denyPattern.FindString(sql)
	if m == "" {
		return Verdict{Allowed: true}
	}
	kw := strings.ToLower(m)
	return Verdict{
		Allowed: false,
		Keyword: kw,
		Reason:  fmt.Sprintf("query contains disallowed keyword %q; only read-only queries are allowed", kw),
	}
}

// RejectedError is returned by execution paths that refuse a query.
type RejectedError struct {
	Verdict Verdict
}

func (e *RejectedError) Error() string {
	return "sql rejected: " + e.Verdict.Reason
}

// Check is Admit as an error: nil when allowed, *RejectedError otherwise.
func Check(sql string) error {
	if v := Admit(sql); !v.Allowed {
		return &RejectedError{Verdict: v}
	}
	return nil
}
