package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PostgreSQL struct {
	Host    string
	Port    string
	User    string
	Pass    string
	DBName  string
	SSLMode string
	Conn    *sql.DB
	help    sqlHelper
}

func (p *PostgreSQL) Connect() error {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Pass, p.DBName, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error connectant a PostgreSQL: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("error connectant a PostgreSQL: %w", err)
	}
	p.Conn = conn
	p.help = newSQLHelper(conn, "postgres")
	logInfof("Connectat a PostgreSQL (%s@%s/%s)", p.User, p.Host, p.DBName)
	return nil
}

func (p *PostgreSQL) Close() {
	if p.Conn != nil {
		p.Conn.Close()
	}
}

func (p *PostgreSQL) conn() *sql.DB { return p.Conn }

// Exec retorna les files afectades; pq no suporta LastInsertId.
func (p *PostgreSQL) Exec(query string, args ...interface{}) (int64, error) {
	return p.help.exec(query, args...)
}

func (p *PostgreSQL) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return p.help.queryMaps(query, args...)
}

func (p *PostgreSQL) ListTables() ([]string, error) { return p.help.listTables() }
func (p *PostgreSQL) ListBirthplaceTables() ([]string, error) {
	return p.help.listBirthplaceTables()
}

func (p *PostgreSQL) LoadPersons(table string) ([]PersonRow, error) {
	return p.help.loadPersons(table)
}

func (p *PostgreSQL) InsertPerson(table string, row PersonRow) (int64, error) {
	return p.help.insertPerson(table, row)
}

func (p *PostgreSQL) SaveRun(run *Run) error { return p.help.saveRun(run) }
func (p *PostgreSQL) GetRun(id string) (*Run, error) { return p.help.getRun(id) }
func (p *PostgreSQL) ListRuns(dataset string) ([]Run, error) { return p.help.listRuns(dataset) }

func (p *PostgreSQL) LoadRunAggregates(runID string) ([]AggregateRow, error) {
	return p.help.loadRunAggregates(runID)
}
