package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// La cadena guarda estat intern; se'n crea una per crida.
// La ı sense punt no té descomposició NFD i es mapeja a mà.
func foldTransformer() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r == 'ı' {
				return 'i'
			}
			return r
		}),
		norm.NFC,
	)
}

// FoldPlace genera la clau de comparació d'un nom de lloc: sense diacrítics,
// en minúscules i amb els espais compactats. "İstanbul", "Istanbul" i
// "ISTANBUL" donen "istanbul".
func FoldPlace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// splitParts parteix pel separador, neteja espais i descarta trossos buits.
func splitParts(s, sep string) []string {
	raw := strings.Split(s, sep)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}
