package cnf

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownPolicy es retorna quan UNRESOLVED no és cap política coneguda.
var ErrUnknownPolicy = errors.New("política de llocs no resolts desconeguda")

// AppConfig – Configuració tipada per facilitar l'ús
type AppConfig struct {
	DBEngine     string
	DBPath       string
	DBHost       string
	DBUser       string
	DBPass       string
	DBPort       string
	DBName       string
	RecreaDB     bool
	LogLevel     string
	Env          string
	RulesFile    string
	Unresolved   string
	CSVSeparator rune
	HTTPAddr     string
	MetricsFile  string
	BlockedIPs   []string
	RateLimit    time.Duration
}

// DBConfig retorna el mapa de claus que espera db.NewDB.
func (ac AppConfig) DBConfig() map[string]string {
	recrea := "false"
	if ac.RecreaDB {
		recrea = "true"
	}
	return map[string]string{
		"DB_ENGINE": ac.DBEngine,
		"DB_PATH":   ac.DBPath,
		"DB_HOST":   ac.DBHost,
		"DB_USR":    ac.DBUser,
		"DB_PASS":   ac.DBPass,
		"DB_PORT":   ac.DBPort,
		"DB_NAME":   ac.DBName,
		"RECREADB":  recrea,
	}
}

// LoadConfig carrega el fitxer en format clau=valor, ignorant línies buides o comentaris.
func LoadConfig(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no s'ha pogut obrir el fitxer de configuració: %w", err)
	}
	defer file.Close()

	config := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if value != "" {
			commentIdx := -1
			for _, marker := range []string{" #", "\t#", " ;", "\t;"} {
				if idx := strings.Index(value, marker); idx >= 0 && (commentIdx == -1 || idx < commentIdx) {
					commentIdx = idx
				}
			}
			if commentIdx >= 0 {
				value = strings.TrimSpace(value[:commentIdx])
			}
		}
		config[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error llegint config: %w", err)
	}

	return config, nil
}

// ParseConfig converteix map[string]string en AppConfig amb valors per defecte.
func ParseConfig(cfg map[string]string) (AppConfig, error) {
	ac := AppConfig{
		DBEngine:    strings.TrimSpace(cfg["DB_ENGINE"]),
		DBPath:      cfg["DB_PATH"],
		DBHost:      cfg["DB_HOST"],
		DBUser:      cfg["DB_USR"],
		DBPass:      cfg["DB_PASS"],
		DBPort:      cfg["DB_PORT"],
		DBName:      cfg["DB_NAME"],
		LogLevel:    strings.TrimSpace(cfg["LOG_LEVEL"]),
		Env:         strings.TrimSpace(cfg["ENVIRONMENT"]),
		RulesFile:   strings.TrimSpace(cfg["RULES_FILE"]),
		Unresolved:  strings.ToLower(strings.TrimSpace(cfg["UNRESOLVED"])),
		HTTPAddr:    strings.TrimSpace(cfg["HTTP_ADDR"]),
		MetricsFile: strings.TrimSpace(cfg["METRICS_FILE"]),
	}

	if ac.DBEngine == "" {
		ac.DBEngine = "sqlite"
	}
	if ac.DBPath == "" {
		ac.DBPath = "./database.db"
	}
	if ac.LogLevel == "" {
		ac.LogLevel = "info"
	}
	if ac.Env == "" {
		ac.Env = os.Getenv("ENVIRONMENT")
		if ac.Env == "" {
			ac.Env = "development"
		}
	}
	if ac.HTTPAddr == "" {
		ac.HTTPAddr = ":8080"
	}

	switch ac.Unresolved {
	case "":
		ac.Unresolved = "passthrough"
	case "passthrough", "drop":
	default:
		return ac, fmt.Errorf("%w: %q", ErrUnknownPolicy, ac.Unresolved)
	}

	ac.CSVSeparator = ','
	if strings.TrimSpace(cfg["CSV_SEPARATOR"]) == ";" {
		ac.CSVSeparator = ';'
	}

	for _, ip := range strings.Split(cfg["BLOCKED_IPS"], ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			ac.BlockedIPs = append(ac.BlockedIPs, ip)
		}
	}

	// RATE_LIMIT_MS: interval mínim entre peticions d'una mateixa IP (0 = sense límit)
	if v := strings.TrimSpace(cfg["RATE_LIMIT_MS"]); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return ac, fmt.Errorf("RATE_LIMIT_MS invàlid: %q", v)
		}
		ac.RateLimit = time.Duration(ms) * time.Millisecond
	}

	if v, ok := cfg["RECREADB"]; ok {
		ac.RecreaDB = parseBool(v)
	}

	return ac, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "si", "sí":
		return true
	}
	return false
}
