package unit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcmoiagese/MapaNaixements/cnf"
)

// TestLoadConfigBasic comprova que:
//   - s'ignoren línies buides i comentaris (# i ;)
//   - es llegeixen clau=valor
//   - l'última definició d'una clau guanya
func TestLoadConfigBasic(t *testing.T) {
	content := `
# Comentari
; Comentari estil INI

DB_ENGINE = sqlite
LOG_LEVEL = debug

# Aquesta línia queda sobreescrita:
LOG_LEVEL = info

SENSEVALOR=

`

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.cfg")

	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("no puc escriure config temporal: %v", err)
	}

	cfg, err := cnf.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig ha fallat: %v", err)
	}

	if got := cfg["DB_ENGINE"]; got != "sqlite" {
		t.Errorf("DB_ENGINE = %q, vull sqlite", got)
	}

	if got := cfg["LOG_LEVEL"]; got != "info" {
		t.Errorf("LOG_LEVEL = %q, vull info (última definició guanya)", got)
	}

	// La clau sense valor hauria d'existir amb valor buit o no existir.
	// En cap cas hauria de provocar panics.
	_ = cfg["SENSEVALOR"]
}

// TestParseConfigDefaults comprova els valors per defecte quan el mapa
// de config està pràcticament buit.
func TestParseConfigDefaults(t *testing.T) {
	// Ens assegurem que ENVIRONMENT estigui buit per provar el fallback.
	oldEnv := os.Getenv("ENVIRONMENT")
	t.Cleanup(func() {
		_ = os.Setenv("ENVIRONMENT", oldEnv)
	})
	_ = os.Unsetenv("ENVIRONMENT")

	cfg := map[string]string{} // buit

	appCfg, err := cnf.ParseConfig(cfg)
	if err != nil {
		t.Fatalf("ParseConfig ha retornat error amb config buida: %v", err)
	}

	if appCfg.DBEngine != "sqlite" {
		t.Errorf("DBEngine = %q, vull 'sqlite' per defecte", appCfg.DBEngine)
	}
	if appCfg.DBPath != "./database.db" {
		t.Errorf("DBPath = %q, vull './database.db' per defecte", appCfg.DBPath)
	}
	if appCfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, vull 'info' per defecte", appCfg.LogLevel)
	}
	if appCfg.Env != "development" {
		t.Errorf("Env = %q, vull 'development' quan ENVIRONMENT no està definit", appCfg.Env)
	}
	if appCfg.RecreaDB {
		t.Errorf("RecreaDB hauria de ser false per defecte")
	}
	if appCfg.Unresolved != "passthrough" {
		t.Errorf("Unresolved = %q, vull 'passthrough' per defecte", appCfg.Unresolved)
	}
	if appCfg.CSVSeparator != ',' {
		t.Errorf("CSVSeparator = %q, vull ','", appCfg.CSVSeparator)
	}
	if appCfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, vull ':8080'", appCfg.HTTPAddr)
	}
}

// TestParseConfigEnvFromEnvVar comprova que si ENVIRONMENT està definit
// i el mapa de config no el sobreescriu, s'agafa el valor de l'entorn.
func TestParseConfigEnvFromEnvVar(t *testing.T) {
	oldEnv := os.Getenv("ENVIRONMENT")
	t.Cleanup(func() {
		_ = os.Setenv("ENVIRONMENT", oldEnv)
	})

	if err := os.Setenv("ENVIRONMENT", "production"); err != nil {
		t.Fatalf("no puc establir ENVIRONMENT: %v", err)
	}

	cfg := map[string]string{
		"DB_ENGINE": "sqlite",
		"DB_PATH":   "/tmp/test.db",
		// No posem ENVIRONMENT aquí per veure el fallback a la variable d'entorn
	}

	appCfg, err := cnf.ParseConfig(cfg)
	if err != nil {
		t.Fatalf("ParseConfig ha retornat error: %v", err)
	}

	if appCfg.Env != "production" {
		t.Errorf("Env = %q, vull 'production' agafat de ENVIRONMENT", appCfg.Env)
	}
	if appCfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, vull '/tmp/test.db'", appCfg.DBPath)
	}
}

func TestParseConfigUnresolvedPolicy(t *testing.T) {
	appCfg, err := cnf.ParseConfig(map[string]string{"UNRESOLVED": " Drop "})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if appCfg.Unresolved != "drop" {
		t.Errorf("Unresolved = %q, vull 'drop'", appCfg.Unresolved)
	}

	_, err = cnf.ParseConfig(map[string]string{"UNRESOLVED": "guess"})
	if !errors.Is(err, cnf.ErrUnknownPolicy) {
		t.Fatalf("err = %v, vull ErrUnknownPolicy", err)
	}
}

func TestParseConfigWebOptions(t *testing.T) {
	appCfg, err := cnf.ParseConfig(map[string]string{
		"BLOCKED_IPS":   "1.2.3.4, 10.0.0.0/8,,",
		"RATE_LIMIT_MS": "250",
		"CSV_SEPARATOR": ";",
		"RECREADB":      "si",
	})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(appCfg.BlockedIPs) != 2 || appCfg.BlockedIPs[1] != "10.0.0.0/8" {
		t.Errorf("BlockedIPs = %v", appCfg.BlockedIPs)
	}
	if appCfg.RateLimit.Milliseconds() != 250 {
		t.Errorf("RateLimit = %v, vull 250ms", appCfg.RateLimit)
	}
	if appCfg.CSVSeparator != ';' {
		t.Errorf("CSVSeparator = %q, vull ';'", appCfg.CSVSeparator)
	}
	if !appCfg.RecreaDB {
		t.Errorf("RecreaDB hauria de ser true amb 'si'")
	}
	if got := appCfg.DBConfig()["RECREADB"]; got != "true" {
		t.Errorf("DBConfig RECREADB = %q, vull true", got)
	}

	if _, err := cnf.ParseConfig(map[string]string{"RATE_LIMIT_MS": "ràpid"}); err == nil {
		t.Errorf("esperava error per RATE_LIMIT_MS invàlid")
	}
}

func TestLoadConfigInlineComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cfg")
	content := "HTTP_ADDR = :9090 # port de proves\nRULES_FILE=perfils.yaml\t; regles\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("no puc escriure config temporal: %v", err)
	}
	cfg, err := cnf.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg["HTTP_ADDR"] != ":9090" {
		t.Errorf("HTTP_ADDR = %q, vull ':9090'", cfg["HTTP_ADDR"])
	}
	if cfg["RULES_FILE"] != "perfils.yaml" {
		t.Errorf("RULES_FILE = %q, vull 'perfils.yaml'", cfg["RULES_FILE"])
	}
}

const profilesYAML = `
unresolved: passthrough
exclusions: [Bilinmiyor]
overrides:
  - match: Üsküp
    target: Skopje
datasets:
  navy:
    file: naval_commanders.csv
    branch: naval
    only_found: true
    unresolved: drop
    exclusions: [Girit]
    overrides:
      - match: "Selanik"
        kind: contains
        target: Centre Macedonia
      - match: "^Kafkas"
        kind: regex
        target: null
    patches:
      "Hüsnü Paşa": "İzmir, Türkiye"
  army:
`

func TestLoadProfilesMergesGlobals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfils.yaml")
	if err := os.WriteFile(path, []byte(profilesYAML), 0o600); err != nil {
		t.Fatalf("no puc escriure perfils: %v", err)
	}
	p, err := cnf.LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}

	if names := p.Names(); len(names) != 2 || names[0] != "army" || names[1] != "navy" {
		t.Errorf("Names = %v, vull [army navy]", names)
	}

	navy := p.Dataset("navy")
	if navy.Name != "navy" || navy.File != "naval_commanders.csv" || !navy.OnlyFound {
		t.Errorf("perfil navy inesperat: %+v", navy)
	}
	if navy.Unresolved != "drop" {
		t.Errorf("Unresolved = %q, vull drop (el del conjunt guanya)", navy.Unresolved)
	}
	if len(navy.Overrides) != 3 || navy.Overrides[0].Match != "Selanik" || navy.Overrides[2].Match != "Üsküp" {
		t.Errorf("Overrides = %+v: primer les del conjunt, després les globals", navy.Overrides)
	}
	if navy.Overrides[1].Target != nil {
		t.Errorf("target null hauria de quedar nil")
	}
	if len(navy.Exclusions) != 2 {
		t.Errorf("Exclusions = %v, vull globals + conjunt", navy.Exclusions)
	}
	if navy.Patches["Hüsnü Paşa"] != "İzmir, Türkiye" {
		t.Errorf("Patches = %v", navy.Patches)
	}

	army := p.Dataset("army")
	if army.Unresolved != "passthrough" || len(army.Overrides) != 1 {
		t.Errorf("perfil army buit hauria d'heretar els globals: %+v", army)
	}

	other := p.Dataset("no-existeix")
	if other.Name != "no-existeix" || len(other.Exclusions) != 1 {
		t.Errorf("perfil inexistent = %+v", other)
	}

	var nilProfiles *cnf.Profiles
	if ds := nilProfiles.Dataset("x"); ds.Name != "x" || ds.File != "" {
		t.Errorf("Dataset sobre perfils nil = %+v", ds)
	}
}

func TestLoadProfilesRejectsInvalidRules(t *testing.T) {
	cases := map[string]string{
		"política": "unresolved: guess\n",
		"tipus":    "datasets:\n  a:\n    overrides:\n      - match: x\n        kind: fuzzy\n",
		"match":    "datasets:\n  a:\n    overrides:\n      - target: x\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "perfils.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("no puc escriure perfils: %v", err)
			}
			if _, err := cnf.LoadProfiles(path); err == nil {
				t.Errorf("esperava error per a %q", content)
			}
		})
	}
}
