package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// SequenceSpec describes a counter table and the prefixed identifiers that
// were allocated from it.
type SequenceSpec struct {
	SeqTable     string
	SeqColumn    string
	EntityTables []string
	IDColumn     string
	Prefix       string
}

// SequenceDrift captures drift between a counter and the max existing ID.
type SequenceDrift struct {
	SeqTable string
	MaxID    int64
	SeqValue int64
}

// DefaultSequenceSpecs returns the built-in counters.
func DefaultSequenceSpecs() []SequenceSpec {
	return []SequenceSpec{
		{
			SeqTable:     "task_index_seq",
			SeqColumn:    "n",
			EntityTables: []string{"projects", "imported_projects"},
			IDColumn:     "task_index",
			Prefix:       "TASK",
		},
	}
}

// SequenceDrifts returns any counters whose value is below the max existing ID.
// Task indexes written by an import bypass the counter, so a later direct
// entry could otherwise hand out an index that is already in use.
func (db *DB) SequenceDrifts(specs []SequenceSpec) ([]SequenceDrift, error) {
	drifts := []SequenceDrift{}

	for _, spec := range specs {
		maxID, err := db.maxExistingID(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to compute max ID for %s: %w", spec.SeqTable, err)
		}

		seqValue, err := db.currentSequence(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to read counter %s: %w", spec.SeqTable, err)
		}

		if seqValue < maxID {
			drifts = append(drifts, SequenceDrift{
				SeqTable: spec.SeqTable,
				MaxID:    maxID,
				SeqValue: seqValue,
			})
		}
	}

	return drifts, nil
}

// FixSequenceDrifts advances counters to the max existing IDs.
// Returns the list of counters that were updated.
func (db *DB) FixSequenceDrifts(specs []SequenceSpec) ([]SequenceDrift, error) {
	drifts, err := db.SequenceDrifts(specs)
	if err != nil {
		return nil, err
	}

	byTable := make(map[string]SequenceSpec, len(specs))
	for _, spec := range specs {
		byTable[spec.SeqTable] = spec
	}

	for _, drift := range drifts {
		if err := db.setSequence(byTable[drift.SeqTable], drift.MaxID); err != nil {
			return nil, fmt.Errorf("failed to update counter %s: %w", drift.SeqTable, err)
		}
	}

	return drifts, nil
}

func (db *DB) maxExistingID(spec SequenceSpec) (int64, error) {
	startPos := len(spec.Prefix) + 1
	castType := "INTEGER"
	if db.IsPostgres() {
		castType = "BIGINT"
	}

	parts := make([]string, 0, len(spec.EntityTables))
	args := make([]any, 0, 2*len(spec.EntityTables))
	for _, table := range spec.EntityTables {
		// Only well-formed indexes count; free-form imported values are ignored.
		parts = append(parts, fmt.Sprintf(
			"SELECT CAST(SUBSTR(%[1]s, ?) AS %[3]s) AS n FROM %[2]s WHERE %[1]s LIKE ? AND %[4]s",
			spec.IDColumn, table, castType, db.digitsOnly(spec.IDColumn, startPos),
		))
		args = append(args, startPos, spec.Prefix+"%")
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(n), 0) FROM (%s) ids", strings.Join(parts, " UNION ALL "))
	var maxID int64
	if err := db.QueryRow(db.Rebind(query), args...).Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID, nil
}

func (db *DB) digitsOnly(column string, startPos int) string {
	if db.IsPostgres() {
		return fmt.Sprintf("SUBSTR(%s, %d) ~ '^[0-9]+$'", column, startPos)
	}
	return fmt.Sprintf("SUBSTR(%s, %d) <> '' AND SUBSTR(%s, %d) NOT GLOB '*[^0-9]*'", column, startPos, column, startPos)
}

func (db *DB) currentSequence(spec SequenceSpec) (int64, error) {
	if db.IsPostgres() {
		// BIGSERIAL names its backing sequence <table>_<column>_seq.
		var last int64
		var called bool
		query := fmt.Sprintf("SELECT last_value, is_called FROM %s_%s_seq", spec.SeqTable, spec.SeqColumn)
		if err := db.QueryRow(query).Scan(&last, &called); err != nil {
			return 0, err
		}
		if !called {
			return 0, nil
		}
		return last, nil
	}

	var seq sql.NullInt64
	err := db.QueryRow("SELECT seq FROM sqlite_sequence WHERE name = ?", spec.SeqTable).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

func (db *DB) setSequence(spec SequenceSpec, value int64) error {
	if db.IsPostgres() {
		_, err := db.Exec("SELECT setval(pg_get_serial_sequence($1, $2), $3)", spec.SeqTable, spec.SeqColumn, value)
		return err
	}

	res, err := db.Exec("UPDATE sqlite_sequence SET seq = ? WHERE name = ?", value, spec.SeqTable)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	_, err = db.Exec("INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", spec.SeqTable, value)
	return err
}
