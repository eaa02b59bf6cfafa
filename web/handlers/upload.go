package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/marcmoiagese/MapaNaixements/core"
	comandaments "github.com/marcmoiagese/MapaNaixements/modules/Importacio/Comandaments"
)

// ImportHandler importa un CSV de persones (camp csvFile) a una taula. Les
// persones ja presents no es dupliquen.
func ImportHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "sense base de dades")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "formulari invàlid")
			return
		}
		file, header, err := r.FormFile("csvFile")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no s'ha pogut llegir el fitxer")
			return
		}
		defer file.Close()

		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			writeError(w, http.StatusBadRequest, "el fitxer ha de ser .csv")
			return
		}

		table := r.FormValue("table")
		if table == "" {
			table = "persones"
		}
		records, err := core.ReadPersonsCSV(file, core.CSVOptions{
			Separator: app.Config.CSVSeparator,
			Branch:    core.ParseBranch(r.FormValue("branch")),
			Source:    header.Filename,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := comandaments.Import(app.DB, table, records)
		if err != nil {
			core.Errorf("error important %s a %s: %v", header.Filename, table, err)
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"table":      table,
			"inserted":   res.Inserted,
			"duplicates": res.Duplicates,
		})
	}
}
