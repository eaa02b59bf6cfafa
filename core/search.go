package core

import "strings"

// PersonFilter selecciona persones per la província resolta. Els camps buits
// no filtren.
type PersonFilter struct {
	Province string
	Branch   Branch
	// Query són paraules que han d'aparèixer totes al nom.
	Query   string
	Outcome Outcome
}

// PersonMatch és un registre amb la seva resolució.
type PersonMatch struct {
	Name          string  `json:"name"`
	RawBirthplace string  `json:"birthplace"`
	Province      string  `json:"province,omitempty"`
	Outcome       Outcome `json:"outcome"`
	Branch        Branch  `json:"branch,omitempty"`
	URL           string  `json:"url,omitempty"`
}

// SearchPersons resol cada registre i retorna els que passen el filtre, en
// l'ordre d'entrada. La província i les paraules es comparen plegades.
func SearchPersons(records []PersonRecord, n *Normalizer, f PersonFilter) []PersonMatch {
	if n == nil {
		n = NewNormalizer(nil)
	}
	province := FoldPlace(f.Province)
	var words []string
	for _, w := range strings.Fields(f.Query) {
		words = append(words, FoldPlace(w))
	}

	out := []PersonMatch{}
	for _, p := range records {
		if f.Branch != BranchUnknown && p.Branch != f.Branch {
			continue
		}
		if !containsAll(FoldPlace(p.Name), words) {
			continue
		}
		res := n.Resolve(p.RawBirthplace)
		if province != "" && FoldPlace(res.Province) != province {
			continue
		}
		if f.Outcome != "" && res.Outcome != f.Outcome {
			continue
		}
		out = append(out, PersonMatch{
			Name:          p.Name,
			RawBirthplace: p.RawBirthplace,
			Province:      res.Province,
			Outcome:       res.Outcome,
			Branch:        p.Branch,
			URL:           p.URL,
		})
	}
	return out
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
