package domain

import "strings"

// ProjectKey is the natural key joining the IT and NX record sets.
//
// The three sources are joined on project_name string equality only, so the
// key is normalized once on every write path and every lookup: surrounding
// whitespace is removed and case is preserved.
type ProjectKey string

// NormalizeKey applies the project key policy to s.
func NormalizeKey(s string) ProjectKey {
	return ProjectKey(strings.TrimSpace(s))
}

// String returns the key as a plain string.
func (k ProjectKey) String() string {
	return string(k)
}

// IsZero reports whether the key is empty after normalization.
func (k ProjectKey) IsZero() bool {
	return k == ""
}

// CompareKeys orders project keys byte-wise (case-sensitive, empty first).
func CompareKeys(a, b string) int {
	return strings.Compare(a, b)
}
