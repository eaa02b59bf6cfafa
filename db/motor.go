package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound es retorna quan no existeix cap execució amb l'ID demanat.
var ErrRunNotFound = errors.New("execució no trobada")

// ErrBadTable es retorna per a noms de taula invàlids o inexistents.
var ErrBadTable = errors.New("taula no vàlida")

type DB interface {
	Connect() error
	Close()
	Exec(query string, args ...interface{}) (int64, error)
	Query(query string, args ...interface{}) ([]map[string]interface{}, error)

	// Fonts de registres
	ListTables() ([]string, error)
	ListBirthplaceTables() ([]string, error)
	LoadPersons(table string) ([]PersonRow, error)
	InsertPerson(table string, p PersonRow) (int64, error)

	// Execucions d'agregació
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(dataset string) ([]Run, error)
	LoadRunAggregates(runID string) ([]AggregateRow, error)
}

// PersonRow és una fila de persona tal com ve de la base de dades.
type PersonRow struct {
	ID         int64
	Name       string
	BirthPlace string
	Branch     string
	Status     string
	Link       string
	StartDate  string
	EndDate    string
}

// Run és una execució d'agregació desada.
type Run struct {
	ID          string
	Dataset     string
	Fingerprint string
	Total       int
	Filtered    int
	Skipped     int
	Resolved    int
	CreatedAt   time.Time
	Aggregates  []AggregateRow
}

type BranchRow struct {
	Branch string `json:"branch"`
	Count  int    `json:"count"`
}

type AggregateRow struct {
	Province string      `json:"province"`
	Count    int         `json:"count"`
	Members  []string    `json:"members"`
	Branches []BranchRow `json:"branches,omitempty"`
}

func NewDB(config map[string]string) (DB, error) {
	var dbInstance DB
	engine := strings.ToLower(strings.TrimSpace(config["DB_ENGINE"]))

	switch engine {
	case "sqlite", "":
		engine = "sqlite"
		dbInstance = &SQLite{Path: config["DB_PATH"]}
	case "postgres", "postgresql":
		engine = "postgres"
		dbInstance = &PostgreSQL{
			Host:    config["DB_HOST"],
			Port:    config["DB_PORT"],
			User:    config["DB_USR"],
			Pass:    config["DB_PASS"],
			DBName:  config["DB_NAME"],
			SSLMode: config["DB_SSLMODE"],
		}
	case "mysql":
		dbInstance = &MySQL{
			Host:   config["DB_HOST"],
			Port:   config["DB_PORT"],
			User:   config["DB_USR"],
			Pass:   config["DB_PASS"],
			DBName: config["DB_NAME"],
		}
	default:
		return nil, fmt.Errorf("motor de BD desconegut: %s", engine)
	}

	// Connectem primer
	if err := dbInstance.Connect(); err != nil {
		return nil, err
	}

	// Si cal, recrearem la BD
	if config["RECREADB"] == "true" {
		if err := CreateDatabaseFromSQL(engine, dbInstance); err != nil {
			dbInstance.Close()
			return nil, fmt.Errorf("error recreant BD amb %s: %v", engine, err)
		}
	}

	return dbInstance, nil
}

//go:embed SQLite.sql PostgreSQL.sql MySQL.sql
var schemas embed.FS

// Obtenir el fitxer SQL segons el motor
func getSQLFilePath(engine string) string {
	switch engine {
	case "postgres":
		return "PostgreSQL.sql"
	case "mysql":
		return "MySQL.sql"
	default:
		return "SQLite.sql"
	}
}

type sqlConn interface {
	conn() *sql.DB
}

// CreateDatabaseFromSQL executa dins d'una transacció totes les sentències
// de l'esquema del motor.
func CreateDatabaseFromSQL(engine string, db DB) error {
	sqlFile := getSQLFilePath(engine)
	logInfof("Recreant BD des de: %s", sqlFile)
	data, err := schemas.ReadFile(sqlFile)
	if err != nil {
		return fmt.Errorf("no s'ha pogut llegir el fitxer SQL: %w", err)
	}

	c, ok := db.(sqlConn)
	if !ok {
		return fmt.Errorf("el motor %s no exposa cap connexió SQL", engine)
	}

	// Elimina línies de comentari i línies buides
	var b strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || trimmed == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	tx, err := c.conn().Begin()
	if err != nil {
		return fmt.Errorf("no s'ha pogut començar transacció: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(b.String(), ";") {
		q := strings.TrimSpace(stmt)
		if q == "" {
			continue
		}
		if _, err := tx.Exec(q); err != nil {
			snip := q
			if len(snip) > 120 {
				snip = snip[:120] + " ..."
			}
			return fmt.Errorf("error executant '%s': %w", snip, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error fent COMMIT: %w", err)
	}

	logInfof("BD recreada correctament")
	return nil
}
