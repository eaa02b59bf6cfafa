package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcmoiagese/MapaNaixements/web/handlers"
)

type aggregateBody struct {
	Dataset   string         `json:"dataset"`
	Total     int            `json:"total"`
	Skipped   int            `json:"skipped"`
	Resolved  int            `json:"resolved"`
	Outcomes  map[string]int `json:"outcomes"`
	Provinces []struct {
		Province string   `json:"province"`
		Count    int      `json:"count"`
		Members  []string `json:"members"`
		Branches []struct {
			Branch string `json:"branch"`
			Count  int    `json:"count"`
		} `json:"branches"`
	} `json:"provinces"`
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPIAggregateDatasetTopN(t *testing.T) {
	app := newTestApp(t, nil)
	seed(t, app.DB, officials()...)
	router := handlers.NewRouter(app)

	rr := doRequest(t, router, http.MethodGet, "/api/aggregate?dataset=persones&top=2", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body aggregateBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 7, body.Total)
	assert.Equal(t, 6, body.Resolved)
	require.Len(t, body.Provinces, 2)
	assert.Equal(t, "İstanbul", body.Provinces[0].Province)
	assert.Equal(t, []string{"Fevzi Çakmak", "Hasan Paşa"}, body.Provinces[0].Members)
	assert.Equal(t, "Sakarya", body.Provinces[1].Province)
	assert.Equal(t, 1, body.Outcomes["unknown"])
}

func TestAPIAggregateErrors(t *testing.T) {
	app := newTestApp(t, nil)
	router := handlers.NewRouter(app)

	cases := []struct {
		target string
		want   int
	}{
		{"/api/aggregate", http.StatusBadRequest},
		{"/api/aggregate?dataset=persones&top=-1", http.StatusBadRequest},
		{"/api/aggregate?dataset=no_existeix", http.StatusNotFound},
		{"/api/runs/no-existeix", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.want, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPIRunsListAndDetail(t *testing.T) {
	app := newTestApp(t, nil)
	seed(t, app.DB, officials()...)
	rep, err := app.RunDataset("persones", true)
	require.NoError(t, err)
	router := handlers.NewRouter(app)

	rr := doRequest(t, router, http.MethodGet, "/api/runs?dataset=persones", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Runs []handlers.RunView `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, rep.ID, list.Runs[0].ID)

	rr = doRequest(t, router, http.MethodGet, "/api/runs/"+rep.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var detail handlers.RunView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, rep.Fingerprint, detail.Fingerprint)
	assert.Len(t, detail.Provinces, len(rep.Result.Provinces))
}

func TestAPIAggregateUpload(t *testing.T) {
	app := newTestApp(t, nil)
	router := handlers.NewRouter(app)

	csvBody := "name,birthplace,force\n" +
		"A,\"Istanbul, Türkiye\",Army\n" +
		"B,Selanik,Navy\n" +
		"C,?,Navy\n" +
		"D,Osmanlı İmparatorluğu,Army\n"
	rr := doRequest(t, router, http.MethodPost, "/api/aggregate", csvBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body aggregateBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "upload", body.Dataset)
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, 2, body.Skipped)
	assert.Equal(t, 1, body.Outcomes["excluded"])

	rr = doRequest(t, router, http.MethodPost, "/api/aggregate", "nom;lloc\nA;B\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIMetricsAndDatasets(t *testing.T) {
	app := newTestApp(t, nil)
	seed(t, app.DB, officials()...)
	router := handlers.NewRouter(app)

	rr := doRequest(t, router, http.MethodGet, "/api/aggregate?dataset=persones", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	metrics := rr.Body.String()
	assert.Contains(t, metrics, `mapanaixements_records_total{dataset="persones",outcome="exact"}`)
	assert.Contains(t, metrics, `mapanaixements_provinces{dataset="persones"} 4`)

	rr = doRequest(t, router, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"datasets":[]}`, rr.Body.String())
}
