package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type MySQL struct {
	Host   string
	Port   string
	User   string
	Pass   string
	DBName string
	Conn   *sql.DB
	help   sqlHelper
}

func (d *MySQL) Connect() error {
	port := d.Port
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4", d.User, d.Pass, d.Host, port, d.DBName)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("error connectant a MySQL: %w", err)
	}
	conn.SetConnMaxLifetime(3 * time.Minute)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("error connectant a MySQL: %w", err)
	}
	d.Conn = conn
	d.help = newSQLHelper(conn, "mysql")
	logInfof("Connectat a MySQL (%s@%s/%s)", d.User, d.Host, d.DBName)
	return nil
}

func (d *MySQL) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *MySQL) conn() *sql.DB { return d.Conn }

func (d *MySQL) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *MySQL) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return d.help.queryMaps(query, args...)
}

func (d *MySQL) ListTables() ([]string, error) { return d.help.listTables() }
func (d *MySQL) ListBirthplaceTables() ([]string, error) {
	return d.help.listBirthplaceTables()
}

func (d *MySQL) LoadPersons(table string) ([]PersonRow, error) {
	return d.help.loadPersons(table)
}

func (d *MySQL) InsertPerson(table string, p PersonRow) (int64, error) {
	return d.help.insertPerson(table, p)
}

func (d *MySQL) SaveRun(run *Run) error { return d.help.saveRun(run) }
func (d *MySQL) GetRun(id string) (*Run, error) { return d.help.getRun(id) }
func (d *MySQL) ListRuns(dataset string) ([]Run, error) { return d.help.listRuns(dataset) }

func (d *MySQL) LoadRunAggregates(runID string) ([]AggregateRow, error) {
	return d.help.loadRunAggregates(runID)
}
