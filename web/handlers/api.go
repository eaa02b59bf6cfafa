package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcmoiagese/MapaNaixements/core"
	"github.com/marcmoiagese/MapaNaixements/db"
)

const maxUploadBytes = 10 << 20

// NewRouter munta l'API de lectura per als renderitzadors de mapes.
func NewRouter(app *core.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(app.BlockIPs)
	r.Use(app.RateLimit)
	r.Use(app.SecureHeaders)

	r.Get("/api/datasets", DatasetsHandler(app))
	r.Get("/api/runs", RunsHandler(app))
	r.Get("/api/runs/{id}", RunHandler(app))
	r.Get("/api/aggregate", AggregateHandler(app))
	r.Post("/api/aggregate", AggregateUploadHandler(app))
	r.Get("/api/persons", PersonsHandler(app))
	r.Get("/api/summary", SummaryHandler(app))
	r.Get("/api/provinces", ProvincesHandler(app))
	r.Post("/api/import", ImportHandler(app))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	return r
}

// RunView és la resposta JSON d'una execució.
type RunView struct {
	ID          string            `json:"id"`
	Dataset     string            `json:"dataset"`
	Fingerprint string            `json:"fingerprint"`
	Total       int               `json:"total"`
	Filtered    int               `json:"filtered"`
	Skipped     int               `json:"skipped"`
	Resolved    int               `json:"resolved"`
	CreatedAt   time.Time         `json:"created_at"`
	Provinces   []db.AggregateRow `json:"provinces,omitempty"`
}

func runView(run db.Run) RunView {
	return RunView{
		ID:          run.ID,
		Dataset:     run.Dataset,
		Fingerprint: run.Fingerprint,
		Total:       run.Total,
		Filtered:    run.Filtered,
		Skipped:     run.Skipped,
		Resolved:    run.Resolved,
		CreatedAt:   run.CreatedAt,
		Provinces:   run.Aggregates,
	}
}

// AggregateView és la resposta d'una agregació feta al moment.
type AggregateView struct {
	Dataset     string                    `json:"dataset"`
	Fingerprint string                    `json:"fingerprint"`
	Total       int                       `json:"total"`
	Filtered    int                       `json:"filtered"`
	Skipped     int                       `json:"skipped"`
	Resolved    int                       `json:"resolved"`
	Outcomes    map[core.Outcome]int      `json:"outcomes"`
	Provinces   []*core.ProvinceAggregate `json:"provinces"`
}

func aggregateView(rep *core.Report, top int) AggregateView {
	res := rep.Result
	provinces := res.Top(top)
	if provinces == nil {
		provinces = []*core.ProvinceAggregate{}
	}
	return AggregateView{
		Dataset:     rep.Dataset,
		Fingerprint: rep.Fingerprint,
		Total:       res.Total,
		Filtered:    res.Filtered,
		Skipped:     res.Skipped,
		Resolved:    res.Resolved(),
		Outcomes:    res.Outcomes,
		Provinces:   provinces,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// statusFor tradueix els errors coneguts a codis HTTP.
func statusFor(err error) int {
	var perr *csv.ParseError
	switch {
	case errors.Is(err, db.ErrRunNotFound), errors.Is(err, core.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, core.ErrMissingColumn), errors.Is(err, db.ErrBadTable),
		errors.As(err, &perr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func topParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("top")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("paràmetre top invàlid")
	}
	return n, nil
}

func DatasetsHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := app.Datasets()
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"datasets": names})
	}
}

// ProvincesHandler retorna els noms canònics de província, les claus amb què
// els renderitzadors han de casar les seves geometries.
func ProvincesHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provinces := app.Rules.Provinces()
		if provinces == nil {
			provinces = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"provinces": provinces})
	}
}

func RunsHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "sense base de dades")
			return
		}
		runs, err := app.DB.ListRuns(r.URL.Query().Get("dataset"))
		if err != nil {
			core.Errorf("error llistant execucions: %v", err)
			writeError(w, statusFor(err), err.Error())
			return
		}
		out := make([]RunView, 0, len(runs))
		for _, run := range runs {
			out = append(out, runView(run))
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": out})
	}
}

func RunHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "sense base de dades")
			return
		}
		run, err := app.DB.GetRun(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runView(*run))
	}
}

// AggregateHandler agrega al moment el conjunt ?dataset= sense desar-lo.
func AggregateHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("dataset")
		if name == "" {
			writeError(w, http.StatusBadRequest, "falta el paràmetre dataset")
			return
		}
		top, err := topParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rep, err := app.RunDataset(name, false)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, aggregateView(rep, top))
	}
}

// AggregateUploadHandler agrega un CSV enviat al cos de la petició. El perfil
// ?dataset= és opcional.
func AggregateUploadHandler(app *core.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := topParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name := r.URL.Query().Get("dataset")
		if name == "" {
			name = "upload"
		}
		body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
		records, err := core.ReadPersonsCSV(body, core.CSVOptions{
			Separator: app.Config.CSVSeparator,
			Branch:    core.ParseBranch(r.URL.Query().Get("branch")),
			Source:    name,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rep, err := app.RunRecords(name, records, false)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, aggregateView(rep, top))
	}
}
