package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marcmoiagese/MapaNaixements/cnf"
	"github.com/marcmoiagese/MapaNaixements/db"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrUnknownDataset es retorna quan un conjunt de dades no té cap font.
var ErrUnknownDataset = errors.New("conjunt de dades desconegut")

// AllTables és el nom de conjunt que agrega totes les taules amb birth_place.
const AllTables = "all"

// App encapsula dependències compartides per evitar reobrir recursos per petició.
type App struct {
	Config   cnf.AppConfig
	DB       db.DB
	Profiles *cnf.Profiles
	Rules    *RuleSet
	Metrics  *Metrics
	Registry *prometheus.Registry

	rateLimiter sync.Map
	lastSweep   atomic.Int64
}

// NewApp prepara l'aplicació. database i profiles poden ser nil.
func NewApp(cfg cnf.AppConfig, database db.DB, profiles *cnf.Profiles) (*App, error) {
	policy, err := ParseUnresolvedPolicy(cfg.Unresolved)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &App{
		Config:   cfg,
		DB:       database,
		Profiles: profiles,
		Rules:    DefaultRules().WithPolicy(policy),
		Metrics:  NewMetrics(reg),
		Registry: reg,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Datasets retorna els conjunts configurats als perfils.
func (a *App) Datasets() []string {
	return a.Profiles.Names()
}

// LoadDataset llegeix els registres d'un conjunt: el fitxer CSV del perfil,
// la taula del perfil, una taula amb el mateix nom o, per a "all", totes
// les taules amb columna birth_place.
func (a *App) LoadDataset(name string) ([]PersonRecord, error) {
	ds := a.Profiles.Dataset(name)
	branch := ParseBranch(ds.Branch)

	if ds.File != "" {
		return LoadPersonsCSV(ds.File, CSVOptions{
			Separator: a.Config.CSVSeparator,
			Branch:    branch,
			Source:    name,
		})
	}
	if a.DB == nil {
		return nil, fmt.Errorf("%w: %s (sense fitxer ni base de dades)", ErrUnknownDataset, name)
	}

	tables := []string{ds.Table}
	if ds.Table == "" {
		tables = []string{name}
	}
	if name == AllTables && ds.Table == "" {
		var err error
		tables, err = a.DB.ListBirthplaceTables()
		if err != nil {
			return nil, err
		}
	}

	var records []PersonRecord
	for _, table := range tables {
		rows, err := a.DB.LoadPersons(table)
		if errors.Is(err, db.ErrBadTable) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownDataset, name, err)
		}
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			records = append(records, RecordFromRow(row, table, branch))
		}
	}
	Debugf("%s: %d registres carregats de %d taules", name, len(records), len(tables))
	return records, nil
}

// Report és el resultat d'executar un conjunt de dades.
type Report struct {
	ID          string
	Dataset     string
	Fingerprint string
	Patched     int
	Duration    time.Duration
	Result      *Result
}

// RunDataset carrega, corregeix i agrega un conjunt de dades. Amb save, desa
// l'execució a la base de dades.
func (a *App) RunDataset(name string, save bool) (*Report, error) {
	records, err := a.LoadDataset(name)
	if err != nil {
		return nil, err
	}
	return a.RunRecords(name, records, save)
}

// RunRecords aplica el perfil del conjunt name sobre registres ja carregats.
func (a *App) RunRecords(name string, records []PersonRecord, save bool) (*Report, error) {
	ds := a.Profiles.Dataset(name)
	records, patched := ApplyPatches(records, ds.Patches)

	rules, err := RulesFromProfile(a.Rules, ds)
	if err != nil {
		return nil, err
	}
	var filters []Filter
	if ds.OnlyFound {
		filters = append(filters, OnlyFound())
	}

	start := time.Now()
	res := Aggregate(records, NewNormalizer(rules), filters...)
	elapsed := time.Since(start)
	a.Metrics.Observe(name, res, elapsed)

	rep := &Report{
		ID:          uuid.NewString(),
		Dataset:     name,
		Fingerprint: Fingerprint(records, rules),
		Patched:     patched,
		Duration:    elapsed,
		Result:      res,
	}
	Infof("%s: %d registres, %d agregats a %d províncies, %d sense província (%s)",
		name, res.Total, res.Resolved(), len(res.Provinces), res.Skipped, elapsed)

	if save {
		if a.DB == nil {
			return rep, fmt.Errorf("no es pot desar l'execució sense base de dades")
		}
		if err := a.DB.SaveRun(RunFromReport(rep)); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// Search busca persones d'un conjunt amb les correccions i regles del seu perfil.
func (a *App) Search(name string, f PersonFilter) ([]PersonMatch, error) {
	records, err := a.LoadDataset(name)
	if err != nil {
		return nil, err
	}
	ds := a.Profiles.Dataset(name)
	records, _ = ApplyPatches(records, ds.Patches)
	rules, err := RulesFromProfile(a.Rules, ds)
	if err != nil {
		return nil, err
	}
	return SearchPersons(records, NewNormalizer(rules), f), nil
}

// RecordFromRow converteix una fila de la base de dades en registre. branch
// s'aplica quan la fila no en porta.
func RecordFromRow(row db.PersonRow, source string, branch Branch) PersonRecord {
	p := PersonRecord{
		Name:          row.Name,
		RawBirthplace: row.BirthPlace,
		Branch:        ParseBranch(row.Branch),
		Status:        ParseStatus(row.Status),
		Source:        source,
		URL:           row.Link,
		StartDate:     row.StartDate,
		EndDate:       row.EndDate,
	}
	if p.Branch == BranchUnknown {
		p.Branch = branch
	}
	return p
}

// RowFromRecord és la inversa de RecordFromRow.
func RowFromRecord(p PersonRecord) db.PersonRow {
	return db.PersonRow{
		Name:       p.Name,
		BirthPlace: p.RawBirthplace,
		Branch:     string(p.Branch),
		Status:     string(p.Status),
		Link:       p.URL,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
	}
}

// RunFromReport prepara un informe per desar-lo.
func RunFromReport(rep *Report) *db.Run {
	res := rep.Result
	run := &db.Run{
		ID:          rep.ID,
		Dataset:     rep.Dataset,
		Fingerprint: rep.Fingerprint,
		Total:       res.Total,
		Filtered:    res.Filtered,
		Skipped:     res.Skipped,
		Resolved:    res.Resolved(),
	}
	for _, pa := range res.Provinces {
		run.Aggregates = append(run.Aggregates, AggregateRowFrom(pa))
	}
	return run
}

func AggregateRowFrom(pa *ProvinceAggregate) db.AggregateRow {
	row := db.AggregateRow{
		Province: pa.Province,
		Count:    pa.Count,
		Members:  append([]string(nil), pa.Members...),
	}
	for _, b := range pa.Branches {
		row.Branches = append(row.Branches, db.BranchRow{Branch: string(b.Branch), Count: b.Count})
	}
	return row
}
