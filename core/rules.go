package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marcmoiagese/MapaNaixements/cnf"
)

type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchContains
	MatchRegex
)

func (k MatchKind) String() string {
	switch k {
	case MatchContains:
		return "contains"
	case MatchRegex:
		return "regex"
	}
	return "exact"
}

// ParseMatchKind accepta exact, contains i regex (buit = exact).
func ParseMatchKind(s string) (MatchKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "contains", "substring":
		return MatchContains, nil
	case "regex", "regexp":
		return MatchRegex, nil
	}
	return MatchExact, fmt.Errorf("tipus de regla desconegut: %q", s)
}

// Rule associa un patró amb una província canònica. Drop marca una regla que
// força el resultat "sense província".
type Rule struct {
	Pattern string
	Kind    MatchKind
	Target  string
	Drop    bool

	key string
	re  *regexp.Regexp
}

// Exact crea una regla de coincidència exacta insensible a majúscules i diacrítics.
func Exact(pattern, target string) Rule {
	return Rule{Pattern: pattern, Kind: MatchExact, Target: target, key: FoldPlace(pattern)}
}

// Contains crea una regla que casa si el tros conté el patró.
func Contains(pattern, target string) Rule {
	return Rule{Pattern: pattern, Kind: MatchContains, Target: target, key: FoldPlace(pattern)}
}

// Regex compila una regla d'expressió regular. S'aplica al text original i,
// si no casa, a la seva forma plegada.
func Regex(pattern, target string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("regla %q: %w", pattern, err)
	}
	return Rule{Pattern: pattern, Kind: MatchRegex, Target: target, re: re}, nil
}

// Dropped converteix la regla en una exclusió explícita.
func (r Rule) Dropped() Rule {
	r.Drop = true
	r.Target = ""
	return r
}

// Matches comprova un tros del lloc de naixement contra la regla.
func (r Rule) Matches(part string) bool {
	switch r.Kind {
	case MatchRegex:
		if r.re == nil {
			return false
		}
		return r.re.MatchString(part) || r.re.MatchString(FoldPlace(part))
	case MatchContains:
		return r.key != "" && strings.Contains(FoldPlace(part), r.key)
	default:
		return r.key != "" && FoldPlace(part) == r.key
	}
}

func (r Rule) String() string {
	target := r.Target
	if r.Drop {
		target = "<cap>"
	}
	return fmt.Sprintf("%s:%s->%s", r.Kind, r.Pattern, target)
}

// UnresolvedPolicy decideix què fer amb l'últim tros quan cap regla no casa.
type UnresolvedPolicy int

const (
	PassThrough UnresolvedPolicy = iota
	DropUnresolved
)

func (p UnresolvedPolicy) String() string {
	if p == DropUnresolved {
		return "drop"
	}
	return "passthrough"
}

func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return PassThrough, nil
	case "drop":
		return DropUnresolved, nil
	}
	return PassThrough, fmt.Errorf("%w: %q", cnf.ErrUnknownPolicy, s)
}

type tableEntry struct {
	key    string
	target string
}

// RuleSet és la configuració immutable del normalitzador. Els mètodes With*
// en retornen una còpia.
type RuleSet struct {
	overrides  []Rule
	table      []tableEntry
	index      map[string]string
	suffixes   []string
	suffixRe   *regexp.Regexp
	separator  string
	sentinels  map[string]struct{}
	exclusions map[string]struct{}
	policy     UnresolvedPolicy
}

// NewRuleSet construeix un joc de regles a partir de la taula de consulta
// (clau -> província, en ordre). Les claus repetides conserven la primera
// aparició, tant per a la cerca exacta com per a la de subcadena.
func NewRuleSet(table []Rule) *RuleSet {
	rs := &RuleSet{
		index:      make(map[string]string, len(table)),
		separator:  ",",
		sentinels:  map[string]struct{}{},
		exclusions: map[string]struct{}{},
	}
	for _, r := range table {
		key := FoldPlace(r.Pattern)
		if key == "" || r.Target == "" {
			continue
		}
		if _, dup := rs.index[key]; dup {
			continue
		}
		rs.index[key] = r.Target
		rs.table = append(rs.table, tableEntry{key: key, target: r.Target})
	}
	return rs
}

func (rs *RuleSet) clone() *RuleSet {
	c := *rs
	c.overrides = append([]Rule(nil), rs.overrides...)
	c.suffixes = append([]string(nil), rs.suffixes...)
	c.sentinels = make(map[string]struct{}, len(rs.sentinels))
	for k := range rs.sentinels {
		c.sentinels[k] = struct{}{}
	}
	c.exclusions = make(map[string]struct{}, len(rs.exclusions))
	for k := range rs.exclusions {
		c.exclusions[k] = struct{}{}
	}
	return &c
}

// WithOverrides afegeix regles prioritàries, avaluades abans de la taula i
// en l'ordre donat després de les que ja hi havia.
func (rs *RuleSet) WithOverrides(rules ...Rule) *RuleSet {
	c := rs.clone()
	c.overrides = append(c.overrides, rules...)
	return c
}

// WithExclusions afegeix noms que mai no es poden retornar com a província.
func (rs *RuleSet) WithExclusions(names ...string) *RuleSet {
	c := rs.clone()
	for _, n := range names {
		if k := FoldPlace(n); k != "" {
			c.exclusions[k] = struct{}{}
		}
	}
	return c
}

// WithSentinels afegeix valors que volen dir "lloc desconegut".
func (rs *RuleSet) WithSentinels(values ...string) *RuleSet {
	c := rs.clone()
	for _, v := range values {
		if k := FoldPlace(v); k != "" {
			c.sentinels[k] = struct{}{}
		}
	}
	return c
}

// WithSuffixes afegeix frases de país o imperi que es tallen del final.
// La comparació distingeix majúscules.
func (rs *RuleSet) WithSuffixes(phrases ...string) *RuleSet {
	c := rs.clone()
	c.suffixes = append(c.suffixes, phrases...)
	c.compileSuffixes()
	return c
}

func (rs *RuleSet) WithSeparator(sep string) *RuleSet {
	c := rs.clone()
	if sep != "" {
		c.separator = sep
	}
	c.compileSuffixes()
	return c
}

func (rs *RuleSet) WithPolicy(p UnresolvedPolicy) *RuleSet {
	c := rs.clone()
	c.policy = p
	return c
}

func (rs *RuleSet) Policy() UnresolvedPolicy { return rs.policy }

// Overrides retorna una còpia de les regles prioritàries.
func (rs *RuleSet) Overrides() []Rule { return append([]Rule(nil), rs.overrides...) }

// Provinces retorna les províncies canòniques de la taula sense repetir.
func (rs *RuleSet) Provinces() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range rs.table {
		if !seen[e.target] {
			seen[e.target] = true
			out = append(out, e.target)
		}
	}
	return out
}

func (rs *RuleSet) compileSuffixes() {
	if len(rs.suffixes) == 0 {
		rs.suffixRe = nil
		return
	}
	quoted := make([]string, len(rs.suffixes))
	for i, s := range rs.suffixes {
		quoted[i] = regexp.QuoteMeta(s)
	}
	rs.suffixRe = regexp.MustCompile(regexp.QuoteMeta(rs.separator) + `\s*(?:` + strings.Join(quoted, "|") + `).*$`)
}

func (rs *RuleSet) stripSuffix(s string) string {
	if rs.suffixRe == nil {
		return s
	}
	if loc := rs.suffixRe.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

func (rs *RuleSet) isSentinel(s string) bool {
	_, ok := rs.sentinels[FoldPlace(s)]
	return ok
}

func (rs *RuleSet) isExcluded(s string) bool {
	_, ok := rs.exclusions[FoldPlace(s)]
	return ok
}

// RulesFromProfile aplica un perfil de conjunt de dades sobre un joc de regles base.
func RulesFromProfile(base *RuleSet, p cnf.DatasetProfile) (*RuleSet, error) {
	rs := base
	overrides := make([]Rule, 0, len(p.Overrides))
	for _, o := range p.Overrides {
		kind, err := ParseMatchKind(o.Kind)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p.Name, err)
		}
		target := ""
		if o.Target != nil {
			target = strings.TrimSpace(*o.Target)
		}
		var r Rule
		switch kind {
		case MatchRegex:
			r, err = Regex(o.Match, target)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", p.Name, err)
			}
		case MatchContains:
			r = Contains(o.Match, target)
		default:
			r = Exact(o.Match, target)
		}
		if target == "" {
			r = r.Dropped()
		}
		overrides = append(overrides, r)
	}
	if len(overrides) > 0 {
		rs = rs.WithOverrides(overrides...)
	}
	if len(p.Exclusions) > 0 {
		rs = rs.WithExclusions(p.Exclusions...)
	}
	if p.Unresolved != "" {
		policy, err := ParseUnresolvedPolicy(p.Unresolved)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p.Name, err)
		}
		rs = rs.WithPolicy(policy)
	}
	return rs, nil
}
