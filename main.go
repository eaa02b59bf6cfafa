package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/marcmoiagese/MapaNaixements/cnf"
	"github.com/marcmoiagese/MapaNaixements/core"
	"github.com/marcmoiagese/MapaNaixements/db"
)

var (
	configPath string
	rulesPath  string
	verbose    bool

	appConfig cnf.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "mapanaixements",
	Short: "Normalitza llocs de naixement i els agrega per província",
	Long: `mapanaixements llegeix llistats de càrrecs (CSV o taules SQL), normalitza
el lloc de naixement de cada persona a una província i en calcula els recomptes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		raw := map[string]string{}
		if _, err := os.Stat(configPath); err == nil || cmd.Flags().Changed("config") {
			loaded, err := cnf.LoadConfig(configPath)
			if err != nil {
				return err
			}
			raw = loaded
		}
		ac, err := cnf.ParseConfig(raw)
		if err != nil {
			return err
		}
		if rulesPath != "" {
			ac.RulesFile = rulesPath
		}
		appConfig = ac

		core.SetLogLevel(ac.LogLevel)
		if verbose {
			core.SetLogLevel("debug")
		}
		core.Debugf("configuració: motor=%s entorn=%s regles=%q", ac.DBEngine, ac.Env, ac.RulesFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		core.SyncLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cnf/config.cfg", "fitxer de configuració clau=valor")
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "", "fitxer YAML de perfils (per defecte RULES_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "registre detallat")

	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
}

// openApp crea l'aplicació; amb withDB també obre la base de dades.
func openApp(withDB bool) (*core.App, error) {
	var profiles *cnf.Profiles
	if appConfig.RulesFile != "" {
		p, err := cnf.LoadProfiles(appConfig.RulesFile)
		if err != nil {
			return nil, err
		}
		profiles = p
	}
	var database db.DB
	if withDB {
		d, err := db.NewDB(appConfig.DBConfig())
		if err != nil {
			return nil, err
		}
		database = d
	}
	app, err := core.NewApp(appConfig, database, profiles)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, err
	}
	return app, nil
}

// attachDB obre la base de dades d'una aplicació creada sense.
func attachDB(app *core.App) error {
	if app.DB != nil {
		return nil
	}
	d, err := db.NewDB(appConfig.DBConfig())
	if err != nil {
		return err
	}
	app.DB = d
	return nil
}

// writeMetrics bolca les mètriques a METRICS_FILE, si està configurat.
func writeMetrics(app *core.App) {
	if appConfig.MetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(appConfig.MetricsFile, app.Registry); err != nil {
		core.Errorf("no s'han pogut escriure les mètriques a %s: %v", appConfig.MetricsFile, err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
