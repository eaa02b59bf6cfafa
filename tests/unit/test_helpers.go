package unit

import (
	"testing"

	"github.com/marcmoiagese/MapaNaixements/cnf"
	"github.com/marcmoiagese/MapaNaixements/core"
	"github.com/marcmoiagese/MapaNaixements/db"
)

// newTestConfig retorna una configuració mínima per a tests amb SQLite en memòria.
func newTestConfig() map[string]string {
	return map[string]string{
		"DB_ENGINE": "sqlite",
		"DB_PATH":   ":memory:",
		"LOG_LEVEL": "silent",
		"RECREADB":  "true", // perquè es creï l'esquema de la BD als tests
	}
}

// newTestApp crea una *core.App per a tests amb una BD SQLite in-memory.
func newTestApp(t *testing.T, profiles *cnf.Profiles) *core.App {
	t.Helper()

	ac, err := cnf.ParseConfig(newTestConfig())
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	database, err := db.NewDB(ac.DBConfig())
	if err != nil {
		t.Fatalf("db.NewDB: %v", err)
	}
	app, err := core.NewApp(ac, database, profiles)
	if err != nil {
		t.Fatalf("core.NewApp: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func seed(t *testing.T, d db.DB, rows ...db.PersonRow) {
	t.Helper()
	for _, row := range rows {
		if _, err := d.InsertPerson("persones", row); err != nil {
			t.Fatalf("InsertPerson(%q): %v", row.Name, err)
		}
	}
}
