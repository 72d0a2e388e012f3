// Package cursor implements opaque keyset pagination cursors for listings
// ordered by project name.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor marks the last row of a page. The next page starts strictly after
// it in (project_name, id) order.
type Cursor struct {
	LastName string `json:"last_name"`
	LastID   int64  `json:"last_id"`
}

// New returns a cursor positioned after the given row.
func New(lastName string, lastID int64) (*Cursor, error) {
	if lastName == "" {
		return nil, fmt.Errorf("last project name required")
	}
	return &Cursor{LastName: lastName, LastID: lastID}, nil
}

// Encode serializes the cursor to an opaque base64 string.
func (c *Cursor) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode deserializes a cursor from an opaque base64 string.
func Decode(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty cursor string")
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if c.LastName == "" {
		return nil, fmt.Errorf("cursor missing last project name")
	}

	return &c, nil
}

// WhereClause returns the predicate selecting rows after the cursor, with
// its parameters, for a query ordered by project_name, id.
func (c *Cursor) WhereClause() (string, []any) {
	return "(project_name > ? OR (project_name = ? AND id > ?))",
		[]any{c.LastName, c.LastName, c.LastID}
}
