package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/remote"
	"cablebill/internal/sheets"
	gsheet "cablebill/internal/sheets/google"
	"cablebill/internal/sheets/memory"
	"cablebill/internal/worker"
)

var errNoRemote = errors.New("REMOTE_URL is not set")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange customers and payments with the sync server",
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the sync server answers",
	RunE:  runSyncStatus,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local customers and payments to the server",
	Long: `Upload local customers and payments. Customers already on the server
(same name and phone) are matched instead of duplicated, and payments are
remapped to the server's customer ids.`,
	RunE: runSyncPush,
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace local customers and payments with the server's",
	RunE:  runSyncPull,
}

var exportSheetsCmd = &cobra.Command{
	Use:   "export-sheets",
	Short: "Append payments missing from the Google Sheet",
	Long: `Append every payment that is not yet on the payments sheet. Rows are
matched by payment id, so running this repeatedly is safe. It recovers
payments whose events were lost while no sync-worker was running.`,
	RunE: runExportSheets,
}

func init() {
	rootCmd.AddCommand(syncCmd, exportSheetsCmd)
	syncCmd.AddCommand(syncStatusCmd, syncPushCmd, syncPullCmd)

	exportSheetsCmd.Flags().Bool("dry-run", false, "Build the rows in memory and report the count without touching the sheet")
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	if app.Remote == nil {
		return errNoRemote
	}
	st, err := app.Remote.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync server %s: %w", app.Remote.BaseURL(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (server time %s)\n",
		app.Remote.BaseURL(), st.Message, st.Time.Format("2006-01-02 15:04:05"))
	return nil
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	if app.Syncer == nil {
		return errNoRemote
	}
	out := cmd.OutOrStdout()
	res, err := app.Syncer.Push(cmd.Context(), func(p remote.Progress) {
		fmt.Fprintf(out, "\r%-14s %d/%d", p.Phase, p.Index, p.Total)
	})
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pushed: %d customers mapped, %d payments uploaded\n",
		res.CustomersMapped, res.PaymentsPushed)
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	if app.Syncer == nil {
		return errNoRemote
	}
	if err := app.Syncer.Pull(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d customers and %d payments\n",
		len(app.Ledger.Customers()), len(app.Ledger.Payments()))
	return nil
}

func runExportSheets(cmd *cobra.Command, args []string) error {
	var (
		exporter sheets.PaymentExporter
		index    sheets.PaymentIndex
	)
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		mem := memory.New()
		exporter, index = mem, mem
	} else {
		if app.Config.GoogleSpreadsheetID == "" {
			return errors.New("GOOGLE_SPREADSHEET_ID is not set")
		}
		client, err := gsheet.New(cmd.Context(), app.Config.GoogleSpreadsheetID, app.Config.GoogleSheetName, app.Logger)
		if err != nil {
			return err
		}
		exporter, index = client, client
	}

	w := worker.NewSyncWorker(exporter, index, app.Logger)
	n, err := w.ExportPending(cmd.Context(), app.Ledger.Book())
	if err != nil {
		return fmt.Errorf("exported %d before failing: %w", n, err)
	}
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would export %d payments\n", n)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d payments\n", n)
	return nil
}
