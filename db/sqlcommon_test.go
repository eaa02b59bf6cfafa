package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// abs() del mínim enter fa fallar SQLite a mitja iteració.
const overflowSchema = `
CREATE TABLE nums (v INTEGER);
INSERT INTO nums (v) VALUES (1), (-9223372036854775807 - 1);
CREATE TABLE run_provinces (run_id TEXT, province TEXT, count INTEGER, position INTEGER);
INSERT INTO run_provinces VALUES ('r1', 'Konya', 2, 0);
CREATE VIEW run_members AS
	SELECT 'r1' AS run_id, 'Konya' AS province, abs(v) AS name, rowid AS position FROM nums;
`

func overflowHelper(t *testing.T) sqlHelper {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	_, err = conn.Exec(overflowSchema)
	require.NoError(t, err)
	return newSQLHelper(conn, "sqlite")
}

func TestQueryEachReportsIterationError(t *testing.T) {
	h := overflowHelper(t)

	var seen []int64
	err := h.queryEach(`SELECT abs(v) FROM nums ORDER BY rowid`, nil, func(rows *sql.Rows) error {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		seen = append(seen, v)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
	assert.LessOrEqual(t, len(seen), 1)
}

func TestLoadRunAggregatesMemberError(t *testing.T) {
	h := overflowHelper(t)

	aggs, err := h.loadRunAggregates("r1")
	require.Error(t, err, "una llista de membres tallada no es pot donar per bona")
	assert.Contains(t, err.Error(), "membres de r1")
	assert.Nil(t, aggs)
}
