package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumn indica que la capçalera no porta una columna obligatòria.
var ErrMissingColumn = errors.New("falta una columna obligatòria")

// CSVOptions controla la lectura de fitxers de persones.
type CSVOptions struct {
	Separator rune
	// Branch s'assigna als registres sense columna de branca.
	Branch Branch
	Source string
}

// àlies de capçalera -> camp
var personColumns = map[string]string{
	"name":           "name",
	"isim":           "name",
	"ad":             "name",
	"birthplace":     "birthplace",
	"birth_place":    "birthplace",
	"dogum_yeri":     "birthplace",
	"branch":         "branch",
	"force":          "branch",
	"status":         "status",
	"url":            "url",
	"wikipedia_link": "url",
	"start_date":     "start",
	"start_year":     "start",
	"end_date":       "end",
	"end_year":       "end",
}

// ReadPersonsCSV llegeix registres d'un CSV amb capçalera. Calen com a mínim
// les columnes de nom i de lloc de naixement, i totes les files han de tenir
// tants camps com la capçalera.
func ReadPersonsCSV(r io.Reader, opts CSVOptions) ([]PersonRecord, error) {
	reader := csv.NewReader(r)
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("CSV buit: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("error llegint capçalera: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := personColumns[h]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"name", "birthplace"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	get := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []PersonRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error llegint CSV: %w", err)
		}
		name := get(row, "name")
		if name == "" {
			line, _ := reader.FieldPos(0)
			Debugf("%s: fila %d sense nom, descartada", opts.Source, line)
			continue
		}
		branch := ParseBranch(get(row, "branch"))
		if branch == BranchUnknown {
			branch = opts.Branch
		}
		records = append(records, PersonRecord{
			Name:          name,
			RawBirthplace: get(row, "birthplace"),
			Branch:        branch,
			Status:        ParseStatus(get(row, "status")),
			Source:        opts.Source,
			URL:           get(row, "url"),
			StartDate:     get(row, "start"),
			EndDate:       get(row, "end"),
		})
	}
	return records, nil
}

// LoadPersonsCSV obre i llegeix un fitxer CSV de persones.
func LoadPersonsCSV(path string, opts CSVOptions) ([]PersonRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no puc obrir %s: %w", path, err)
	}
	defer f.Close()
	if opts.Source == "" {
		opts.Source = path
	}
	records, err := ReadPersonsCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	Infof("llegits %d registres de %s", len(records), path)
	return records, nil
}

// WritePersonsCSV escriu el format fusionat de registres.
func WritePersonsCSV(w io.Writer, records []PersonRecord, sep rune) error {
	writer := csv.NewWriter(w)
	if sep != 0 {
		writer.Comma = sep
	}
	if err := writer.Write([]string{"name", "birthplace", "start_date", "end_date", "force", "status", "url"}); err != nil {
		return err
	}
	for _, p := range records {
		row := []string{p.Name, p.RawBirthplace, p.StartDate, p.EndDate, string(p.Branch), string(p.Status), p.URL}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
