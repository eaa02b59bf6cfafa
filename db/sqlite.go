package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite implementa DB per SQLite
type SQLite struct {
	Path string
	Conn *sql.DB
	help sqlHelper
}

// Connect obre la base de dades; per defecte ./database.db
func (d *SQLite) Connect() error {
	path := d.Path
	if path == "" {
		path = "./database.db"
	}
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("error connectant a SQLite: %w", err)
	}
	// :memory: només és compartida dins d'una mateixa connexió
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("error connectant a SQLite: %w", err)
	}
	d.Conn = conn
	d.help = newSQLHelper(conn, "sqlite")
	logInfof("Connectat a SQLite (%s)", path)
	return nil
}

// Close tanca la connexió activa
func (d *SQLite) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *SQLite) conn() *sql.DB { return d.Conn }

func (d *SQLite) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *SQLite) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return d.help.queryMaps(query, args...)
}

func (d *SQLite) ListTables() ([]string, error) { return d.help.listTables() }
func (d *SQLite) ListBirthplaceTables() ([]string, error) { return d.help.listBirthplaceTables() }

func (d *SQLite) LoadPersons(table string) ([]PersonRow, error) {
	return d.help.loadPersons(table)
}

func (d *SQLite) InsertPerson(table string, p PersonRow) (int64, error) {
	return d.help.insertPerson(table, p)
}

func (d *SQLite) SaveRun(run *Run) error { return d.help.saveRun(run) }
func (d *SQLite) GetRun(id string) (*Run, error) { return d.help.getRun(id) }
func (d *SQLite) ListRuns(dataset string) ([]Run, error) { return d.help.listRuns(dataset) }

func (d *SQLite) LoadRunAggregates(runID string) ([]AggregateRow, error) {
	return d.help.loadRunAggregates(runID)
}
