package handlers

import (
	"net/http"

	"github.com/marcmoiagese/MapaNaixements/core"
	comandaments "github.com/marcmoiagese/MapaNaixements/modules/Importacio/Comandaments"
)

// PersonsHandler llista les persones d'un conjunt filtrades per província,
// branca, resultat o paraules del nom, paginades.
func PersonsHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := q.Get("dataset")
		if name == "" {
			writeError(w, http.StatusBadRequest, "falta el paràmetre dataset")
			return
		}

		filter := core.PersonFilter{
			Province: q.Get("province"),
			Branch:   core.ParseBranch(q.Get("branch")),
			Query:    q.Get("q"),
			Outcome:  core.Outcome(q.Get("outcome")),
		}
		matches, err := app.Search(name, filter)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		page := core.BuildPagination(r, core.ParseListPage(q.Get("page")), core.ParseListPerPage(q.Get("per_page")), len(matches))
		writeJSON(w, http.StatusOK, map[string]any{
			"dataset":    name,
			"persons":    core.Slice(matches, page),
			"pagination": page,
		})
	}
}

// SummaryView resumeix la cobertura i les persones repetides d'un conjunt.
type SummaryView struct {
	Dataset        string              `json:"dataset"`
	Total          int                 `json:"total"`
	WithBirthplace int                 `json:"with_birthplace"`
	Missing        int                 `json:"missing"`
	NotFound       int                 `json:"not_found"`
	ByBranch       map[core.Branch]int `json:"by_branch"`
	Unique         int                 `json:"unique"`
	Duplicates     int                 `json:"duplicates"`
	WithLink       int                 `json:"with_link"`
}

func SummaryHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("dataset")
		if name == "" {
			writeError(w, http.StatusBadRequest, "falta el paràmetre dataset")
			return
		}
		records, err := app.LoadDataset(name)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		s := comandaments.MissingSummary(records)
		u := comandaments.CountUnique(records)
		writeJSON(w, http.StatusOK, SummaryView{
			Dataset:        name,
			Total:          s.Total,
			WithBirthplace: s.WithBirthplace,
			Missing:        s.Missing,
			NotFound:       s.NotFound,
			ByBranch:       s.ByBranch,
			Unique:         u.Unique,
			Duplicates:     u.Duplicates(),
			WithLink:       u.WithLink,
		})
	}
}
