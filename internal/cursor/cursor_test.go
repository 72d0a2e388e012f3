package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorEncodeDecode(t *testing.T) {
	c, err := New("alpha, \"gen 2\"", 42)
	require.NoError(t, err)

	encoded, err := c.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, c, decoded)
}

func TestNewRequiresName(t *testing.T) {
	_, err := New("", 1)
	require.Error(t, err)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		wantErr string
	}{
		{"empty string", "", "empty cursor"},
		{"not base64", "!!!", "invalid cursor encoding"},
		{"not json", "bm90IGpzb24=", "invalid cursor format"},
		{"missing name", "eyJsYXN0X2lkIjoxfQ==", "missing last project name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWhereClause(t *testing.T) {
	c := &Cursor{LastName: "beta", LastID: 7}
	clause, params := c.WhereClause()
	require.Equal(t, "(project_name > ? OR (project_name = ? AND id > ?))", clause)
	require.Equal(t, []any{"beta", "beta", int64(7)}, params)
}
