package id

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TaskIndexPrefix is the prefix of human-readable DV task indexes.
const TaskIndexPrefix = "TASK"

var (
	taskIndexPattern   = regexp.MustCompile(`^TASK(\d{3,})$`)
	surrogateIDPattern = regexp.MustCompile(`^[0-9]+$`)
)

// FormatTaskIndex formats a task index, e.g. 7 -> TASK007.
// Indexes past 999 simply grow wider (TASK1000).
func FormatTaskIndex(seq int64) string {
	return fmt.Sprintf("%s%03d", TaskIndexPrefix, seq)
}

// ParseTaskIndex returns the sequence number of a task index.
func ParseTaskIndex(s string) (int64, error) {
	s = strings.TrimSpace(s)
	m := taskIndexPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid task index format: %s", s)
	}
	seq, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task index format: %s", s)
	}
	return seq, nil
}

// IsTaskIndex checks if a string is a well-formed task index.
func IsTaskIndex(s string) bool {
	_, err := ParseTaskIndex(s)
	return err == nil
}

// ParseSurrogateID parses a non-negative decimal integer identifier.
// It reports false for anything else, including values that overflow int64.
func ParseSurrogateID(s string) (int64, bool) {
	if !surrogateIDPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
