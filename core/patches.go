package core

import "strings"

// ApplyPatches corregeix a mà el lloc de naixement de les persones indicades
// (nom -> lloc). Els registres corregits passen a estat found. No modifica la
// llista d'entrada; retorna una còpia i el nombre de correccions aplicades.
func ApplyPatches(records []PersonRecord, patches map[string]string) ([]PersonRecord, int) {
	out := append([]PersonRecord(nil), records...)
	if len(patches) == 0 {
		return out, 0
	}
	byName := make(map[string]string, len(patches))
	for name, place := range patches {
		byName[strings.TrimSpace(name)] = strings.TrimSpace(place)
	}
	applied := 0
	for i := range out {
		place, ok := byName[strings.TrimSpace(out[i].Name)]
		if !ok || place == "" {
			continue
		}
		out[i].RawBirthplace = place
		out[i].Status = StatusFound
		applied++
	}
	if applied > 0 {
		Infof("%d llocs de naixement corregits manualment", applied)
	}
	return out, applied
}
