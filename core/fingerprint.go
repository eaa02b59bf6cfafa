package core

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint resumeix els registres d'entrada i el joc de regles aplicat, de
// manera que dues execucions sobre les mateixes dades donen la mateixa empremta.
func Fingerprint(records []PersonRecord, rules *RuleSet) string {
	h, _ := blake2b.New256(nil)
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	for _, p := range records {
		write(p.Name)
		write(p.RawBirthplace)
		write(string(p.Branch))
		write(string(p.Status))
	}
	if rules != nil {
		write(rules.policy.String())
		for _, r := range rules.overrides {
			write(r.String())
		}
		for _, e := range rules.table {
			write(e.key + "=" + e.target)
		}
		excl := make([]string, 0, len(rules.exclusions))
		for k := range rules.exclusions {
			excl = append(excl, k)
		}
		sort.Strings(excl)
		for _, k := range excl {
			write("!" + k)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
