package selectors

import (
	"fmt"
	"path"
	"strings"

	"github.com/lherron/tosum/internal/domain"
)

// IsGlobPattern reports whether s contains glob metacharacters.
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// ValidatePattern checks that a glob pattern is well formed.
func ValidatePattern(pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid match pattern %q: %w", pattern, err)
	}
	return nil
}

// MatchName reports whether a project name or task index matches pattern.
// Patterns without metacharacters must match exactly. Matching is
// case-sensitive, like identifier lookup.
func MatchName(pattern, name string) bool {
	if !IsGlobPattern(pattern) {
		return pattern == name
	}
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}

// FilterViews keeps the merged rows whose project name or task index
// matches any of the patterns. No patterns keeps every row.
func FilterViews(rows []*domain.MergedProjectView, patterns []string) []*domain.MergedProjectView {
	if len(patterns) == 0 {
		return rows
	}
	out := make([]*domain.MergedProjectView, 0, len(rows))
	for _, v := range rows {
		for _, p := range patterns {
			if MatchName(p, v.ProjectName) || (v.TaskIndex != nil && MatchName(p, *v.TaskIndex)) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
