package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marcmoiagese/MapaNaixements/core"
)

var (
	aggFile     string
	aggBranch   string
	aggSave     bool
	aggTop      int
	aggJSON     bool
	aggUnmapped bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [dataset]",
	Short: "Agrega un conjunt de dades per província",
	Long: `Carrega el conjunt (fitxer CSV del perfil, taula SQL o "all" per a totes
les taules amb birth_place), normalitza els llocs de naixement i mostra els
recomptes per província.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggFile, "file", "f", "", "CSV d'entrada (substitueix la font del perfil)")
	aggregateCmd.Flags().StringVar(&aggBranch, "branch", "", "branca per a les files que no en porten")
	aggregateCmd.Flags().BoolVar(&aggSave, "save", false, "desa l'execució a la base de dades")
	aggregateCmd.Flags().IntVarP(&aggTop, "top", "n", 0, "mostra només les N primeres províncies")
	aggregateCmd.Flags().BoolVar(&aggJSON, "json", false, "sortida JSON")
	aggregateCmd.Flags().BoolVar(&aggUnmapped, "unmapped", false, "llista també els registres sense província")
}

// datasetName decideix el nom del conjunt a partir dels arguments.
func datasetName(args []string, file string) string {
	if len(args) > 0 {
		return args[0]
	}
	if file != "" {
		return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return core.AllTables
}

func runAggregate(cmd *cobra.Command, args []string) error {
	name := datasetName(args, aggFile)
	app, err := openApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	var rep *core.Report
	if aggFile != "" {
		records, err := core.LoadPersonsCSV(aggFile, core.CSVOptions{
			Separator: appConfig.CSVSeparator,
			Branch:    core.ParseBranch(aggBranch),
			Source:    name,
		})
		if err != nil {
			return err
		}
		if aggSave {
			if err := attachDB(app); err != nil {
				return err
			}
		}
		rep, err = app.RunRecords(name, records, aggSave)
		if err != nil {
			return err
		}
	} else {
		if aggSave || app.Profiles.Dataset(name).File == "" {
			if err := attachDB(app); err != nil {
				return err
			}
		}
		rep, err = app.RunDataset(name, aggSave)
		if err != nil {
			return err
		}
	}
	writeMetrics(app)

	out := cmd.OutOrStdout()
	if aggJSON {
		return printReportJSON(out, rep)
	}
	printReport(out, rep, aggTop, aggUnmapped, aggSave)
	return nil
}

type jsonReport struct {
	ID          string                    `json:"id"`
	Dataset     string                    `json:"dataset"`
	Fingerprint string                    `json:"fingerprint"`
	Total       int                       `json:"total"`
	Filtered    int                       `json:"filtered"`
	Skipped     int                       `json:"skipped"`
	Resolved    int                       `json:"resolved"`
	Patched     int                       `json:"patched"`
	Outcomes    map[core.Outcome]int      `json:"outcomes"`
	Provinces   []*core.ProvinceAggregate `json:"provinces"`
}

func printReportJSON(w io.Writer, rep *core.Report) error {
	res := rep.Result
	provinces := res.Top(aggTop)
	if provinces == nil {
		provinces = []*core.ProvinceAggregate{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		ID:          rep.ID,
		Dataset:     rep.Dataset,
		Fingerprint: rep.Fingerprint,
		Total:       res.Total,
		Filtered:    res.Filtered,
		Skipped:     res.Skipped,
		Resolved:    res.Resolved(),
		Patched:     rep.Patched,
		Outcomes:    res.Outcomes,
		Provinces:   provinces,
	})
}

func printReport(w io.Writer, rep *core.Report, top int, unmapped, saved bool) {
	res := rep.Result
	fmt.Fprintf(w, "Conjunt: %s\n", rep.Dataset)
	if saved {
		fmt.Fprintf(w, "Execució: %s\n", rep.ID)
	}
	fmt.Fprintf(w, "Registres: %d  agregats: %d  sense província: %d  filtrats: %d  corregits: %d\n\n",
		res.Total, res.Resolved(), res.Skipped, res.Filtered, rep.Patched)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVÍNCIA\tRECOMPTE\tBRANQUES")
	for _, pa := range res.Top(top) {
		var branches []string
		for _, b := range pa.Branches {
			branches = append(branches, fmt.Sprintf("%s=%d", b.Branch, b.Count))
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", pa.Province, pa.Count, strings.Join(branches, " "))
	}
	tw.Flush()

	if len(res.Outcomes) > 0 {
		fmt.Fprintln(w)
		for _, o := range core.Outcomes {
			if n := res.Outcomes[o]; n > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o, n)
			}
		}
	}

	if unmapped && len(res.Unmapped) > 0 {
		fmt.Fprintln(w, "\nSense província:")
		for _, u := range res.Unmapped {
			fmt.Fprintf(w, "  %s: %q (%s)\n", u.Record.Name, u.Record.RawBirthplace, u.Outcome)
		}
	}
}
