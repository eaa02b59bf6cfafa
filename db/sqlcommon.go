package db

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// formatPlaceholders converteix '?' a placeholders de l'estil PostgreSQL ($1, $2...) si cal.
func formatPlaceholders(style, query string) string {
	if strings.ToLower(style) != "postgres" {
		return query
	}
	var b strings.Builder
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type sqlHelper struct {
	db    *sql.DB
	style string
}

func newSQLHelper(db *sql.DB, style string) sqlHelper {
	return sqlHelper{db: db, style: strings.ToLower(style)}
}

func (h sqlHelper) q(query string) string {
	return formatPlaceholders(h.style, query)
}

func (h sqlHelper) exec(query string, args ...interface{}) (int64, error) {
	res, err := h.db.Exec(h.q(query), args...)
	if err != nil {
		return 0, err
	}
	if h.style == "postgres" {
		return res.RowsAffected()
	}
	return res.LastInsertId()
}

// queryMaps retorna les files com a mapes columna -> valor.
func (h sqlHelper) queryMaps(query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.db.Query(h.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (h sqlHelper) columnExists(table, column string) bool {
	var query string
	switch h.style {
	case "mysql":
		query = `SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	case "postgres":
		query = `SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`
	default: // sqlite
		if !identRe.MatchString(table) {
			return false
		}
		query = fmt.Sprintf(`SELECT 1 FROM pragma_table_info('%s') WHERE name = ?`, table)
		row := h.db.QueryRow(query, column)
		var tmp int
		return row.Scan(&tmp) == nil
	}
	row := h.db.QueryRow(query, table, column)
	var tmp int
	if err := row.Scan(&tmp); err != nil {
		return false
	}
	return true
}

func (h sqlHelper) listTables() ([]string, error) {
	var query string
	switch h.style {
	case "mysql":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case "postgres":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	default:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}
	rows, err := h.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error llistant taules: %w", err)
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (h sqlHelper) listBirthplaceTables() ([]string, error) {
	tables, err := h.listTables()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tables {
		if h.columnExists(t, "birth_place") {
			out = append(out, t)
		}
	}
	return out, nil
}

// checkTable valida el nom (s'interpola a l'SQL) i que la taula existeixi.
func (h sqlHelper) checkTable(table string) error {
	if !identRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrBadTable, table)
	}
	tables, err := h.listTables()
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %q no existeix", ErrBadTable, table)
}

var nameColumns = []string{"name", "isim", "ad", "full_name"}

func (h sqlHelper) loadPersons(table string) ([]PersonRow, error) {
	if err := h.checkTable(table); err != nil {
		return nil, err
	}
	nameCol := ""
	for _, c := range nameColumns {
		if h.columnExists(table, c) {
			nameCol = c
			break
		}
	}
	if nameCol == "" || !h.columnExists(table, "birth_place") {
		return nil, fmt.Errorf("%w: %s no té columnes de nom i birth_place", ErrBadTable, table)
	}

	cols := []string{nameCol, "birth_place"}
	optional := []string{"branch", "status", "wikipedia_link", "start_date", "end_date"}
	present := map[string]bool{}
	for _, c := range optional {
		if h.columnExists(table, c) {
			present[c] = true
			cols = append(cols, c)
		}
	}
	order := ""
	if h.columnExists(table, "id") {
		cols = append(cols, "id")
		order = " ORDER BY id"
	} else if h.style == "sqlite" {
		order = " ORDER BY rowid"
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(cols, ", "), table, order)
	rows, err := h.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error llegint %s: %w", table, err)
	}
	defer rows.Close()

	var out []PersonRow
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error llegint fila de %s: %w", table, err)
		}
		p := PersonRow{Name: vals[0].String, BirthPlace: vals[1].String}
		for i := 2; i < len(cols); i++ {
			v := vals[i].String
			switch cols[i] {
			case "branch":
				p.Branch = v
			case "status":
				p.Status = v
			case "wikipedia_link":
				p.Link = v
			case "start_date":
				p.StartDate = v
			case "end_date":
				p.EndDate = v
			case "id":
				p.ID, _ = strconv.ParseInt(v, 10, 64)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (h sqlHelper) insertPerson(table string, p PersonRow) (int64, error) {
	if err := h.checkTable(table); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (name, birth_place, branch, status, wikipedia_link, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?)`, table)
	if h.style == "postgres" {
		var id int64
		err := h.db.QueryRow(h.q(query+" RETURNING id"), p.Name, p.BirthPlace, p.Branch, p.Status, p.Link, p.StartDate, p.EndDate).Scan(&id)
		return id, err
	}
	return h.exec(query, p.Name, p.BirthPlace, p.Branch, p.Status, p.Link, p.StartDate, p.EndDate)
}

func (h sqlHelper) saveRun(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("execució sense ID")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(h.q(`INSERT INTO runs (id, dataset, fingerprint, total, filtered, skipped, resolved, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Dataset, run.Fingerprint, run.Total, run.Filtered, run.Skipped, run.Resolved, run.CreatedAt); err != nil {
		return fmt.Errorf("error desant execució: %w", err)
	}
	for i, agg := range run.Aggregates {
		if _, err := tx.Exec(h.q(`INSERT INTO run_provinces (run_id, position, province, count) VALUES (?, ?, ?, ?)`),
			run.ID, i, agg.Province, agg.Count); err != nil {
			return fmt.Errorf("error desant província %s: %w", agg.Province, err)
		}
		for j, name := range agg.Members {
			if _, err := tx.Exec(h.q(`INSERT INTO run_members (run_id, province, position, name) VALUES (?, ?, ?, ?)`),
				run.ID, agg.Province, j, name); err != nil {
				return fmt.Errorf("error desant membre %s: %w", name, err)
			}
		}
		for j, b := range agg.Branches {
			if _, err := tx.Exec(h.q(`INSERT INTO run_branches (run_id, province, position, branch, count) VALUES (?, ?, ?, ?, ?)`),
				run.ID, agg.Province, j, b.Branch, b.Count); err != nil {
				return fmt.Errorf("error desant branca %s: %w", b.Branch, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logInfof("execució %s desada (%s, %d províncies)", run.ID, run.Dataset, len(run.Aggregates))
	return nil
}

func scanRun(s interface{ Scan(...interface{}) error }) (*Run, error) {
	var r Run
	if err := s.Scan(&r.ID, &r.Dataset, &r.Fingerprint, &r.Total, &r.Filtered, &r.Skipped, &r.Resolved, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const runColumns = `id, dataset, fingerprint, total, filtered, skipped, resolved, created_at`

func (h sqlHelper) getRun(id string) (*Run, error) {
	row := h.db.QueryRow(h.q(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	run.Aggregates, err = h.loadRunAggregates(id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (h sqlHelper) listRuns(dataset string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []interface{}
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := h.db.Query(h.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// queryEach executa query i crida scan per cada fila. Els errors d'iteració
// es retornen com els de scan.
func (h sqlHelper) queryEach(query string, args []interface{}, scan func(*sql.Rows) error) error {
	rows, err := h.db.Query(h.q(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (h sqlHelper) loadRunAggregates(runID string) ([]AggregateRow, error) {
	args := []interface{}{runID}
	var aggs []AggregateRow
	index := map[string]int{}
	err := h.queryEach(`SELECT province, count FROM run_provinces WHERE run_id = ? ORDER BY position`, args,
		func(rows *sql.Rows) error {
			var a AggregateRow
			if err := rows.Scan(&a.Province, &a.Count); err != nil {
				return err
			}
			index[a.Province] = len(aggs)
			aggs = append(aggs, a)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("províncies de %s: %w", runID, err)
	}

	err = h.queryEach(`SELECT province, name FROM run_members WHERE run_id = ? ORDER BY province, position`, args,
		func(rows *sql.Rows) error {
			var province, name string
			if err := rows.Scan(&province, &name); err != nil {
				return err
			}
			if i, ok := index[province]; ok {
				aggs[i].Members = append(aggs[i].Members, name)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("membres de %s: %w", runID, err)
	}

	err = h.queryEach(`SELECT province, branch, count FROM run_branches WHERE run_id = ? ORDER BY province, position`, args,
		func(rows *sql.Rows) error {
			var province string
			var b BranchRow
			if err := rows.Scan(&province, &b.Branch, &b.Count); err != nil {
				return err
			}
			if i, ok := index[province]; ok {
				aggs[i].Branches = append(aggs[i].Branches, b)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("branques de %s: %w", runID, err)
	}
	return aggs, nil
}
