package cnf

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverrideConfig és una regla explícita lloc -> província d'un fitxer de perfils.
// Target buit o null vol dir "sense província".
type OverrideConfig struct {
	Match  string  `yaml:"match"`
	Kind   string  `yaml:"kind"`
	Target *string `yaml:"target"`
}

// DatasetProfile descriu com es normalitza un conjunt de dades concret.
type DatasetProfile struct {
	Name       string            `yaml:"-"`
	File       string            `yaml:"file"`
	Table      string            `yaml:"table"`
	Branch     string            `yaml:"branch"`
	Unresolved string            `yaml:"unresolved"`
	OnlyFound  bool              `yaml:"only_found"`
	Overrides  []OverrideConfig  `yaml:"overrides"`
	Exclusions []string          `yaml:"exclusions"`
	Patches    map[string]string `yaml:"patches"`
}

// Profiles és el contingut complet del fitxer de regles.
type Profiles struct {
	Unresolved string                     `yaml:"unresolved"`
	Exclusions []string                   `yaml:"exclusions"`
	Overrides  []OverrideConfig           `yaml:"overrides"`
	Datasets   map[string]*DatasetProfile `yaml:"datasets"`
}

// LoadProfiles llegeix el fitxer YAML de perfils de conjunts de dades.
func LoadProfiles(path string) (*Profiles, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error obrint fitxer de perfils: %w", err)
	}
	defer file.Close()

	profiles := &Profiles{}
	if err := yaml.NewDecoder(file).Decode(profiles); err != nil {
		return nil, fmt.Errorf("error decodificant YAML de perfils: %w", err)
	}
	if err := profiles.validate(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (p *Profiles) validate() error {
	if err := checkPolicy(p.Unresolved); err != nil {
		return err
	}
	if err := checkOverrides(p.Overrides); err != nil {
		return err
	}
	for name, ds := range p.Datasets {
		if ds == nil {
			ds = &DatasetProfile{}
			p.Datasets[name] = ds
		}
		ds.Name = name
		if err := checkPolicy(ds.Unresolved); err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
		if err := checkOverrides(ds.Overrides); err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
	}
	return nil
}

func checkOverrides(overrides []OverrideConfig) error {
	for i, o := range overrides {
		if strings.TrimSpace(o.Match) == "" {
			return fmt.Errorf("regla %d sense 'match'", i)
		}
		switch strings.ToLower(strings.TrimSpace(o.Kind)) {
		case "", "exact", "contains", "substring", "regex", "regexp":
		default:
			return fmt.Errorf("tipus de regla desconegut %q", o.Kind)
		}
	}
	return nil
}

func checkPolicy(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "passthrough", "drop":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPolicy, v)
}

// Dataset retorna el perfil d'un conjunt de dades; els valors globals
// (exclusions, regles, política) s'hi fusionen. Si no existeix es retorna
// un perfil amb només els valors globals.
func (p *Profiles) Dataset(name string) DatasetProfile {
	ds := DatasetProfile{Name: name}
	if p == nil {
		return ds
	}
	if found, ok := p.Datasets[name]; ok && found != nil {
		ds = *found
		ds.Name = name
	}
	ds.Overrides = append(append([]OverrideConfig{}, ds.Overrides...), p.Overrides...)
	ds.Exclusions = append(append([]string{}, p.Exclusions...), ds.Exclusions...)
	if ds.Unresolved == "" {
		ds.Unresolved = p.Unresolved
	}
	return ds
}

// Names retorna els noms dels conjunts de dades ordenats.
func (p *Profiles) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Datasets))
	for name := range p.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
