// Package comandaments prepara els llistats de comandaments militars: fusiona
// els fitxers per branca, en resumeix les llacunes i els importa a la base de dades.
package comandaments

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/marcmoiagese/MapaNaixements/core"
	"github.com/marcmoiagese/MapaNaixements/db"
)

// ApplyPatches aplica correccions manuals nom -> lloc de naixement.
var ApplyPatches = core.ApplyPatches

// Source és un fitxer CSV d'una branca.
type Source struct {
	Path   string
	Branch core.Branch
}

// ParseSource interpreta "branca=fitxer.csv"; sense "=" la branca surt del nom del fitxer.
func ParseSource(arg string) Source {
	if i := strings.Index(arg, "="); i > 0 {
		return Source{Path: strings.TrimSpace(arg[i+1:]), Branch: core.ParseBranch(arg[:i])}
	}
	base := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	base = strings.TrimSuffix(base, "_commanders")
	return Source{Path: arg, Branch: core.ParseBranch(base)}
}

// LoadSources llegeix tots els fitxers; la branca de la font s'aplica a les
// files que no en porten.
func LoadSources(sources []Source, sep rune) ([][]core.PersonRecord, error) {
	sets := make([][]core.PersonRecord, 0, len(sources))
	for _, src := range sources {
		records, err := core.LoadPersonsCSV(src.Path, core.CSVOptions{
			Separator: sep,
			Branch:    src.Branch,
			Source:    filepath.Base(src.Path),
		})
		if err != nil {
			return nil, err
		}
		sets = append(sets, records)
	}
	return sets, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"02/01/2006",
	"2 January 2006",
	"January 2006",
	"2006",
}

// parseDate accepta els formats de data que surten als llistats.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Merge concatena els conjunts i els ordena per branca i data d'inici. Les
// dates reconegudes queden en format AAAA-MM-DD; les desconegudes van al final
// de la seva branca i es conserven tal com venien.
func Merge(sets ...[]core.PersonRecord) []core.PersonRecord {
	type keyed struct {
		rec   core.PersonRecord
		start time.Time
		ok    bool
	}
	var all []keyed
	for _, set := range sets {
		for _, p := range set {
			t, ok := parseDate(p.StartDate)
			if ok {
				p.StartDate = t.Format("2006-01-02")
			}
			all = append(all, keyed{rec: p, start: t, ok: ok})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.rec.Branch != b.rec.Branch {
			return a.rec.Branch < b.rec.Branch
		}
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.start.Before(b.start)
	})
	out := make([]core.PersonRecord, len(all))
	for i, k := range all {
		out[i] = k.rec
	}
	return out
}

// Summary resumeix la cobertura de llocs de naixement d'un llistat.
type Summary struct {
	Total          int
	WithBirthplace int
	Missing        int
	NotFound       int
	ByBranch       map[core.Branch]int
}

func MissingSummary(records []core.PersonRecord) Summary {
	s := Summary{Total: len(records), ByBranch: map[core.Branch]int{}}
	for _, p := range records {
		if p.HasBirthplace() {
			s.WithBirthplace++
		} else {
			s.Missing++
		}
		if p.Status == core.StatusNotFound {
			s.NotFound++
		}
		s.ByBranch[p.Branch]++
	}
	return s
}

var nonPersonPatterns = []string{
	"Dosya:", "File:", "listesi", "_list", "genel_seçim",
	"milletvekil", "dönem", "Kategori:", "Category:", "Vikipedi:", "Wikipedia:",
}

// IsPersonPage diu si l'enllaç apunta a la pàgina d'una persona i no a una
// llista, un fitxer o una categoria.
func IsPersonPage(url string) bool {
	if url == "" || !strings.Contains(url, "wikipedia.org") {
		return false
	}
	for _, p := range nonPersonPatterns {
		if strings.Contains(url, p) {
			return false
		}
	}
	return true
}

// Uniques compta persones diferents d'un llistat amb nomenaments repetits.
type Uniques struct {
	Records  int
	Unique   int
	WithLink int
}

func (u Uniques) Duplicates() int { return u.Records - u.Unique }

// CountUnique identifica cada persona per l'enllaç de la seva pàgina o, si no
// en té, pel nom normalitzat.
func CountUnique(records []core.PersonRecord) Uniques {
	u := Uniques{Records: len(records)}
	seen := map[string]bool{}
	for _, p := range records {
		key := ""
		if IsPersonPage(p.URL) {
			key = "url:" + p.URL
			if !seen[key] {
				u.WithLink++
			}
		} else {
			key = "name:" + core.FoldPlace(p.Name)
		}
		if !seen[key] {
			seen[key] = true
			u.Unique++
		}
	}
	return u
}

// ImportResult compta el resultat d'una importació.
type ImportResult struct {
	Inserted   int
	Duplicates int
}

// Import insereix els registres a la taula; les persones ja presents (mateix
// nom i lloc) es compten com a duplicades i no es tornen a inserir.
func Import(database db.DB, table string, records []core.PersonRecord) (ImportResult, error) {
	var res ImportResult
	existing, err := database.LoadPersons(table)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing)+len(records))
	key := func(name, place string) string {
		return core.FoldPlace(name) + "\x00" + core.FoldPlace(place)
	}
	for _, row := range existing {
		seen[key(row.Name, row.BirthPlace)] = true
	}
	for _, p := range records {
		k := key(p.Name, p.RawBirthplace)
		if seen[k] {
			res.Duplicates++
			continue
		}
		if _, err := database.InsertPerson(table, core.RowFromRecord(p)); err != nil {
			return res, fmt.Errorf("error inserint %q: %w", p.Name, err)
		}
		seen[k] = true
		res.Inserted++
	}
	core.Infof("importació a %s: %d inserits, %d duplicats", table, res.Inserted, res.Duplicates)
	return res, nil
}
