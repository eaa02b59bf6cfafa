package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcmoiagese/MapaNaixements/core"
	"github.com/marcmoiagese/MapaNaixements/web/handlers"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Llista les taules i indica quines tenen lloc de naixement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		tables, err := app.DB.ListTables()
		if err != nil {
			return err
		}
		withBirth, err := app.DB.ListBirthplaceTables()
		if err != nil {
			return err
		}
		has := map[string]bool{}
		for _, t := range withBirth {
			has[t] = true
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TAULA\tBIRTH_PLACE")
		for _, t := range tables {
			mark := ""
			if has[t] {
				mark = "sí"
			}
			fmt.Fprintf(tw, "%s\t%s\n", t, mark)
		}
		return tw.Flush()
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "Llista les execucions desades o en mostra una",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			run, err := app.DB.GetRun(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Execució %s (%s) %s\n", run.ID, run.Dataset, run.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Empremta: %s\n", run.Fingerprint)
			fmt.Fprintf(out, "Registres: %d  agregats: %d  sense província: %d  filtrats: %d\n\n",
				run.Total, run.Resolved, run.Skipped, run.Filtered)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVÍNCIA\tRECOMPTE\tMEMBRES")
			for _, a := range run.Aggregates {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", a.Province, a.Count, strings.Join(a.Members, "; "))
			}
			return tw.Flush()
		}

		dataset, _ := cmd.Flags().GetString("dataset")
		runs, err := app.DB.ListRuns(dataset)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCONJUNT\tDATA\tREGISTRES\tAGREGATS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.Dataset, r.CreatedAt.Format(time.RFC3339), r.Total, r.Resolved)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().String("dataset", "", "filtra per conjunt de dades")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serveix l'API JSON d'agregats i les mètriques",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := &http.Server{
			Addr:              appConfig.HTTPAddr,
			Handler:           handlers.NewRouter(app),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			core.Infof("Servidor corrent a %s", appConfig.HTTPAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		core.Infof("Aturant servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
