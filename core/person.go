package core

import "strings"

// Branch és la branca de servei d'un registre.
type Branch string

const (
	BranchUnknown  Branch = ""
	BranchChiefs   Branch = "Chiefs"
	BranchArmy     Branch = "Army"
	BranchNavy     Branch = "Navy"
	BranchAirForce Branch = "Air Force"
	BranchOther    Branch = "Other"
)

// Branches en l'ordre que fan servir els fitxers fusionats.
var Branches = []Branch{BranchChiefs, BranchArmy, BranchNavy, BranchAirForce, BranchOther}

// ParseBranch accepta els noms dels fitxers originals ("Air Force", "air_force",
// "naval"...). Qualsevol altre valor no buit és BranchOther.
func ParseBranch(s string) Branch {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "":
		return BranchUnknown
	case "chiefs", "chief", "chiefsofstaff", "genelkurmay":
		return BranchChiefs
	case "army", "land", "kara":
		return BranchArmy
	case "navy", "naval", "deniz":
		return BranchNavy
	case "airforce", "air", "hava":
		return BranchAirForce
	}
	return BranchOther
}

// Status indica si la font va trobar el lloc de naixement.
type Status string

const (
	StatusUnknown  Status = ""
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "found":
		return StatusFound
	case "not_found", "notfound", "missing":
		return StatusNotFound
	}
	return StatusUnknown
}

// PersonRecord és un registre llegit d'una font; no es modifica un cop carregat.
type PersonRecord struct {
	Name          string
	RawBirthplace string
	Branch        Branch
	Status        Status
	Source        string
	URL           string
	StartDate     string
	EndDate       string
}

// HasBirthplace diu si el registre porta algun text de lloc de naixement.
func (p PersonRecord) HasBirthplace() bool {
	return strings.TrimSpace(p.RawBirthplace) != ""
}
