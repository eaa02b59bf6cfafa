package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marcmoiagese/MapaNaixements/core"
	comandaments "github.com/marcmoiagese/MapaNaixements/modules/Importacio/Comandaments"
)

var statsFile string

var statsCmd = &cobra.Command{
	Use:   "stats [dataset]",
	Short: "Resumeix la cobertura de llocs de naixement d'un conjunt",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := datasetName(args, statsFile)
		app, err := openApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		var records []core.PersonRecord
		if statsFile != "" {
			records, err = core.LoadPersonsCSV(statsFile, core.CSVOptions{Separator: appConfig.CSVSeparator, Source: name})
		} else {
			if app.Profiles.Dataset(name).File == "" {
				if err := attachDB(app); err != nil {
					return err
				}
			}
			records, err = app.LoadDataset(name)
		}
		if err != nil {
			return err
		}

		sum := comandaments.MissingSummary(records)
		uniq := comandaments.CountUnique(records)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Conjunt: %s\n", name)
		fmt.Fprintf(out, "Registres: %d\n", sum.Total)
		fmt.Fprintf(out, "Amb lloc de naixement: %d\n", sum.WithBirthplace)
		fmt.Fprintf(out, "Sense lloc de naixement: %d\n", sum.Missing)
		fmt.Fprintf(out, "No trobats a la font: %d\n", sum.NotFound)
		fmt.Fprintf(out, "Persones diferents: %d (%d amb pàgina, %d nomenaments repetits)\n\n",
			uniq.Unique, uniq.WithLink, uniq.Duplicates())

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "BRANCA\tREGISTRES")
		for _, b := range append(append([]core.Branch{}, core.Branches...), core.BranchUnknown) {
			if n := sum.ByBranch[b]; n > 0 {
				label := string(b)
				if b == core.BranchUnknown {
					label = "(sense branca)"
				}
				fmt.Fprintf(tw, "%s\t%d\n", label, n)
			}
		}
		return tw.Flush()
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsFile, "file", "f", "", "CSV d'entrada")
}

var (
	mergeOut     string
	mergeDataset string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [branca=]fitxer.csv...",
	Short: "Fusiona els llistats per branca en un sol CSV",
	Long: `Fusiona els CSV de cada branca, aplica les correccions manuals del perfil
--dataset i escriu el resultat ordenat per branca i data d'inici.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		sources := make([]comandaments.Source, 0, len(args))
		for _, a := range args {
			sources = append(sources, comandaments.ParseSource(a))
		}
		sets, err := comandaments.LoadSources(sources, appConfig.CSVSeparator)
		if err != nil {
			return err
		}
		merged := comandaments.Merge(sets...)
		merged, patched := comandaments.ApplyPatches(merged, app.Profiles.Dataset(mergeDataset).Patches)

		out := cmd.OutOrStdout()
		if mergeOut != "" {
			f, err := os.Create(mergeOut)
			if err != nil {
				return fmt.Errorf("no puc crear %s: %w", mergeOut, err)
			}
			defer f.Close()
			if err := core.WritePersonsCSV(f, merged, appConfig.CSVSeparator); err != nil {
				return err
			}
		} else if err := core.WritePersonsCSV(out, merged, appConfig.CSVSeparator); err != nil {
			return err
		}

		sum := comandaments.MissingSummary(merged)
		core.Infof("fusionats %d registres (%d amb lloc, %d sense, %d corregits)",
			sum.Total, sum.WithBirthplace, sum.Missing, patched)
		if mergeOut != "" {
			fmt.Fprintf(out, "Desat %s: %d registres, %d sense lloc de naixement\n", mergeOut, sum.Total, sum.Missing)
		}
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "fitxer de sortida (per defecte stdout)")
	mergeCmd.Flags().StringVar(&mergeDataset, "dataset", "", "perfil del qual es prenen les correccions")
}

var (
	importTable  string
	importBranch string
)

var importCmd = &cobra.Command{
	Use:   "import fitxer.csv",
	Short: "Importa un CSV de persones a una taula",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := core.LoadPersonsCSV(args[0], core.CSVOptions{
			Separator: appConfig.CSVSeparator,
			Branch:    core.ParseBranch(importBranch),
		})
		if err != nil {
			return err
		}
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := comandaments.Import(app.DB, importTable, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Importats %d registres a %s (%d duplicats)\n", res.Inserted, importTable, res.Duplicates)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importTable, "table", "t", "persones", "taula de destinació")
	importCmd.Flags().StringVar(&importBranch, "branch", "", "branca per a les files que no en porten")
}
