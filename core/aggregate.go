package core

import "sort"

// BranchCount és el recompte d'una branca dins d'una província.
type BranchCount struct {
	Branch Branch `json:"branch"`
	Count  int    `json:"count"`
}

// ProvinceAggregate acumula els registres d'una província en ordre d'entrada.
type ProvinceAggregate struct {
	Province string        `json:"province"`
	Count    int           `json:"count"`
	Members  []string      `json:"members"`
	Branches []BranchCount `json:"branches,omitempty"`
}

func (pa *ProvinceAggregate) add(p PersonRecord) {
	pa.Count++
	pa.Members = append(pa.Members, p.Name)
	if p.Branch == BranchUnknown {
		return
	}
	for i := range pa.Branches {
		if pa.Branches[i].Branch == p.Branch {
			pa.Branches[i].Count++
			return
		}
	}
	pa.Branches = append(pa.Branches, BranchCount{Branch: p.Branch, Count: 1})
}

// Unmapped és un registre descartat per no tenir província.
type Unmapped struct {
	Record  PersonRecord
	Outcome Outcome
}

// Result és la sortida d'una agregació.
type Result struct {
	Provinces []*ProvinceAggregate
	// Total és el nombre de registres d'entrada.
	Total int
	// Filtered són els registres que no han passat algun filtre.
	Filtered int
	// Skipped són els registres filtrats sense província resolta.
	Skipped  int
	Unmapped []Unmapped
	Outcomes map[Outcome]int

	index map[string]int
}

// Lookup retorna l'agregat d'una província, si n'hi ha.
func (r *Result) Lookup(province string) (*ProvinceAggregate, bool) {
	i, ok := r.index[province]
	if !ok {
		return nil, false
	}
	return r.Provinces[i], true
}

// Resolved és la suma dels recomptes de totes les províncies.
func (r *Result) Resolved() int {
	n := 0
	for _, pa := range r.Provinces {
		n += pa.Count
	}
	return n
}

// Top retorna fins a n províncies per recompte descendent; els empats
// conserven l'ordre d'aparició. n <= 0 les retorna totes.
func (r *Result) Top(n int) []*ProvinceAggregate {
	out := append([]*ProvinceAggregate(nil), r.Provinces...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Counts retorna el mapa província -> recompte.
func (r *Result) Counts() map[string]int {
	m := make(map[string]int, len(r.Provinces))
	for _, pa := range r.Provinces {
		m[pa.Province] = pa.Count
	}
	return m
}

// Filter decideix si un registre entra a l'agregació.
type Filter func(PersonRecord) bool

// OnlyFound deixa passar els registres amb estat found o sense estat.
func OnlyFound() Filter {
	return func(p PersonRecord) bool { return p.Status != StatusNotFound }
}

func NonEmptyBirthplace() Filter {
	return func(p PersonRecord) bool { return p.HasBirthplace() }
}

func OnlyBranches(branches ...Branch) Filter {
	set := make(map[Branch]bool, len(branches))
	for _, b := range branches {
		set[b] = true
	}
	return func(p PersonRecord) bool { return set[p.Branch] }
}

// Aggregate plega els registres en agregats per província. El resultat és
// determinista per a una mateixa entrada i un mateix joc de regles.
func Aggregate(records []PersonRecord, n *Normalizer, filters ...Filter) *Result {
	if n == nil {
		n = NewNormalizer(nil)
	}
	res := &Result{
		Total:    len(records),
		Outcomes: make(map[Outcome]int),
		index:    make(map[string]int),
	}

records:
	for _, p := range records {
		for _, f := range filters {
			if f != nil && !f(p) {
				res.Filtered++
				continue records
			}
		}

		r := n.Resolve(p.RawBirthplace)
		res.Outcomes[r.Outcome]++
		if !r.Resolved() {
			res.Skipped++
			res.Unmapped = append(res.Unmapped, Unmapped{Record: p, Outcome: r.Outcome})
			Debugf("sense província per %q (%q): %s", p.Name, p.RawBirthplace, r.Outcome)
			continue
		}

		i, ok := res.index[r.Province]
		if !ok {
			i = len(res.Provinces)
			res.index[r.Province] = i
			res.Provinces = append(res.Provinces, &ProvinceAggregate{Province: r.Province})
		}
		res.Provinces[i].add(p)
	}
	return res
}
