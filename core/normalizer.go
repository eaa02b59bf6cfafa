package core

import "strings"

// Outcome explica com s'ha resolt (o no) un lloc de naixement.
type Outcome string

const (
	OutcomeUnknown     Outcome = "unknown"
	OutcomeOverride    Outcome = "override"
	OutcomeDropped     Outcome = "dropped"
	OutcomeExact       Outcome = "exact"
	OutcomeSubstring   Outcome = "substring"
	OutcomePassThrough Outcome = "passthrough"
	OutcomeUnresolved  Outcome = "unresolved"
	OutcomeExcluded    Outcome = "excluded"
)

// Outcomes en ordre estable, per a informes i mètriques.
var Outcomes = []Outcome{
	OutcomeOverride, OutcomeExact, OutcomeSubstring, OutcomePassThrough,
	OutcomeUnknown, OutcomeDropped, OutcomeUnresolved, OutcomeExcluded,
}

// Resolved diu si el resultat porta una província.
func (o Outcome) Resolved() bool {
	switch o {
	case OutcomeOverride, OutcomeExact, OutcomeSubstring, OutcomePassThrough:
		return true
	}
	return false
}

type Resolution struct {
	Raw      string
	Province string
	Outcome  Outcome
	// Part és el tros del text que ha decidit el resultat.
	Part string
	Rule string
}

func (r Resolution) Resolved() bool { return r.Outcome.Resolved() }

// Normalizer converteix llocs de naixement lliures en províncies canòniques.
// No té estat propi més enllà del joc de regles, que és immutable.
type Normalizer struct {
	rules *RuleSet
}

func NewNormalizer(rules *RuleSet) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

func (n *Normalizer) Rules() *RuleSet { return n.rules }

// Normalize retorna la província i true, o "" i false si no n'hi ha.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	res := n.Resolve(raw)
	return res.Province, res.Resolved()
}

// Resolve aplica, per ordre: sentinelles, tall de sufix, regles prioritàries,
// taula exacta, taula per subcadena i finalment la política de no resolts.
// Els trossos es recorren de l'últim al primer.
func (n *Normalizer) Resolve(raw string) Resolution {
	rs := n.rules
	res := Resolution{Raw: raw, Outcome: OutcomeUnknown}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || rs.isSentinel(trimmed) {
		return res
	}

	place := rs.stripSuffix(trimmed)
	if rs.isSentinel(place) {
		return res
	}
	parts := splitParts(place, rs.separator)
	if len(parts) == 0 {
		return res
	}

	// regles prioritàries: cada tros i després el text sencer
	candidates := make([]string, 0, len(parts)+1)
	for i := len(parts) - 1; i >= 0; i-- {
		candidates = append(candidates, parts[i])
	}
	if len(parts) > 1 {
		candidates = append(candidates, strings.TrimSpace(place))
	}
	for _, part := range candidates {
		for _, r := range rs.overrides {
			if !r.Matches(part) {
				continue
			}
			res.Part = part
			res.Rule = r.String()
			if r.Drop {
				res.Outcome = OutcomeDropped
				return res
			}
			res.Province = r.Target
			res.Outcome = OutcomeOverride
			return n.applyExclusions(res)
		}
	}

	folded := make([]string, len(parts))
	for i, p := range parts {
		folded[i] = FoldPlace(p)
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if target, ok := rs.index[folded[i]]; ok {
			res.Province = target
			res.Outcome = OutcomeExact
			res.Part = parts[i]
			res.Rule = "exact:" + folded[i]
			return n.applyExclusions(res)
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		for _, e := range rs.table {
			if strings.Contains(folded[i], e.key) || strings.Contains(e.key, folded[i]) {
				res.Province = e.target
				res.Outcome = OutcomeSubstring
				res.Part = parts[i]
				res.Rule = "contains:" + e.key
				return n.applyExclusions(res)
			}
		}
	}

	last := parts[len(parts)-1]
	res.Part = last
	if rs.policy == DropUnresolved {
		res.Outcome = OutcomeUnresolved
		return res
	}
	res.Province = last
	res.Outcome = OutcomePassThrough
	return n.applyExclusions(res)
}

func (n *Normalizer) applyExclusions(res Resolution) Resolution {
	if n.rules.isExcluded(res.Province) {
		res.Province = ""
		res.Outcome = OutcomeExcluded
	}
	return res
}
