package unit

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/marcmoiagese/MapaNaixements/db"
)

func TestNewDB_UnknownEngine(t *testing.T) {
	cfg := map[string]string{
		"DB_ENGINE": "no-such-engine",
	}

	if _, err := db.NewDB(cfg); err == nil {
		t.Fatalf("esperava error per motor de BD desconegut")
	}
}

func TestNewDB_SQLiteRecreatesSchema(t *testing.T) {
	cfg := map[string]string{
		"DB_ENGINE": "sqlite",
		"DB_PATH":   filepath.Join(t.TempDir(), "schema.db"),
		"RECREADB":  "true",
	}
	d, err := db.NewDB(cfg)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer d.Close()

	tables, err := d.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	want := map[string]bool{"persones": false, "runs": false, "run_provinces": false, "run_members": false, "run_branches": false}
	for _, tb := range tables {
		if _, ok := want[tb]; ok {
			want[tb] = true
		}
	}
	for tb, found := range want {
		if !found {
			t.Errorf("falta la taula %s després de recrear l'esquema", tb)
		}
	}

	withBirth, err := d.ListBirthplaceTables()
	if err != nil {
		t.Fatalf("ListBirthplaceTables: %v", err)
	}
	if len(withBirth) != 1 || withBirth[0] != "persones" {
		t.Errorf("ListBirthplaceTables = %v, vull [persones]", withBirth)
	}
}

func TestLoadPersons_RejectsBadTableNames(t *testing.T) {
	app := newTestApp(t, nil)

	for _, name := range []string{"persones; DROP TABLE runs", "no_existeix", ""} {
		if _, err := app.DB.LoadPersons(name); !errors.Is(err, db.ErrBadTable) {
			t.Errorf("LoadPersons(%q) err = %v, vull ErrBadTable", name, err)
		}
	}
}

func TestLoadPersons_ForeignTableWithIsimColumn(t *testing.T) {
	app := newTestApp(t, nil)

	if _, err := app.DB.Exec(`CREATE TABLE bakanlar (id INTEGER PRIMARY KEY, isim TEXT, birth_place TEXT, wikipedia_link TEXT)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	if _, err := app.DB.Exec(`INSERT INTO bakanlar (isim, birth_place, wikipedia_link) VALUES (?, ?, ?), (?, NULL, ?)`,
		"Ali Fuat", "İstanbul", "https://tr.wikipedia.org/wiki/Ali_Fuat", "Refet", ""); err != nil {
		t.Fatalf("INSERT: %v", err)
	}

	rows, err := app.DB.LoadPersons("bakanlar")
	if err != nil {
		t.Fatalf("LoadPersons: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, vull 2", len(rows))
	}
	if rows[0].Name != "Ali Fuat" || rows[0].BirthPlace != "İstanbul" {
		t.Errorf("primera fila = %+v", rows[0])
	}
	if rows[1].BirthPlace != "" {
		t.Errorf("NULL hauria de ser cadena buida, rebut %q", rows[1].BirthPlace)
	}

	tables, err := app.DB.ListBirthplaceTables()
	if err != nil {
		t.Fatalf("ListBirthplaceTables: %v", err)
	}
	if len(tables) != 2 {
		t.Errorf("ListBirthplaceTables = %v, vull bakanlar i persones", tables)
	}
}
