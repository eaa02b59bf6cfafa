package core

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPersonsCSVAliases(t *testing.T) {
	in := "\ufeffIsim;Dogum_Yeri;Force;Status;Wikipedia_Link;Start_Year\n" +
		"Fevzi Çakmak;İstanbul, Osmanlı İmparatorluğu;Chiefs;found;https://tr.wikipedia.org/wiki/Fevzi_Cakmak;1921\n" +
		"Kâzım Orbay; İzmir ;;not_found;;1944\n" +
		";Bursa;Army;found;;\n" +
		"Nuri Conker;Selanik;;;;\n"

	records, err := ReadPersonsCSV(strings.NewReader(in), CSVOptions{Separator: ';', Branch: BranchArmy, Source: "prova"})
	require.NoError(t, err)
	require.Len(t, records, 3, "les files sense nom es descarten")

	assert.Equal(t, PersonRecord{
		Name:          "Fevzi Çakmak",
		RawBirthplace: "İstanbul, Osmanlı İmparatorluğu",
		Branch:        BranchChiefs,
		Status:        StatusFound,
		Source:        "prova",
		URL:           "https://tr.wikipedia.org/wiki/Fevzi_Cakmak",
		StartDate:     "1921",
	}, records[0])
	assert.Equal(t, "İzmir", records[1].RawBirthplace)
	assert.Equal(t, BranchArmy, records[1].Branch, "la branca per defecte omple les buides")
	assert.Equal(t, StatusNotFound, records[1].Status)
	assert.Equal(t, "Selanik", records[2].RawBirthplace)
}

func TestReadPersonsCSVMissingColumn(t *testing.T) {
	_, err := ReadPersonsCSV(strings.NewReader("name,city\nA,Konya\n"), CSVOptions{})
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadPersonsCSV(strings.NewReader(""), CSVOptions{})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadPersonsCSVFieldCount(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
	}{
		{"fila curta", "name,birthplace,status\nA,İzmir,found\nB,Ankara\n", 3},
		{"fila llarga", "name,birthplace,status\nA,İzmir,found\nC,Bursa,found,extra,more\n", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := ReadPersonsCSV(strings.NewReader(tc.in), CSVOptions{})
			assert.Nil(t, records)
			var perr *csv.ParseError
			require.ErrorAs(t, err, &perr)
			assert.ErrorIs(t, err, csv.ErrFieldCount)
			assert.Equal(t, tc.line, perr.Line)
		})
	}
}

func TestReadPersonsCSVLogsNamelessRows(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.txt")
	f, err := os.Create(logPath)
	require.NoError(t, err)
	defer f.Close()
	AttachLoggerOutput(f)
	SetLogLevel("debug")
	t.Cleanup(func() {
		SetLogLevel("error")
		AttachLoggerOutput(os.Stderr)
	})

	records, err := ReadPersonsCSV(strings.NewReader("name,birthplace\n,İzmir\nA,Ankara\n"), CSVOptions{Source: "deniz"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Name)

	SyncLogger()
	out, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "deniz: fila 2 sense nom, descartada")
}

func TestWriteAndLoadPersonsCSV(t *testing.T) {
	records := []PersonRecord{
		{Name: "Fevzi Çakmak", RawBirthplace: "İstanbul", Branch: BranchChiefs, Status: StatusFound, StartDate: "1921-01-01"},
		{Name: "Sadık Altıncan", RawBirthplace: "Bursa, Türkiye", Branch: BranchNavy, EndDate: "1960-05-27"},
	}
	var buf bytes.Buffer
	require.NoError(t, WritePersonsCSV(&buf, records, 0))
	assert.True(t, strings.HasPrefix(buf.String(), "name,birthplace,start_date,end_date,force,status,url\n"))
	assert.Contains(t, buf.String(), `"Bursa, Türkiye"`)

	path := filepath.Join(t.TempDir(), "merged.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	loaded, err := LoadPersonsCSV(path, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for i := range loaded {
		assert.Equal(t, path, loaded[i].Source)
		loaded[i].Source = ""
	}
	assert.Equal(t, records, loaded)

	_, err = LoadPersonsCSV(filepath.Join(t.TempDir(), "no.csv"), CSVOptions{})
	assert.Error(t, err)
}

func TestParseBranchAndStatus(t *testing.T) {
	branches := map[string]Branch{
		"":                BranchUnknown,
		"Chiefs":          BranchChiefs,
		"chiefs_of_staff": BranchChiefs,
		"naval":           BranchNavy,
		"Air Force":       BranchAirForce,
		"air_force":       BranchAirForce,
		"Kara":            BranchArmy,
		"jandarma":        BranchOther,
	}
	for in, want := range branches {
		assert.Equal(t, want, ParseBranch(in), in)
	}

	assert.Equal(t, StatusFound, ParseStatus(" Found "))
	assert.Equal(t, StatusNotFound, ParseStatus("not_found"))
	assert.Equal(t, StatusUnknown, ParseStatus("potser"))
}
