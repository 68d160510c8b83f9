package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"clinic-manager/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncMonth  int
	syncYear   int
	syncDryRun bool
	syncJSON   bool
)

// syncCmd runs one synchronization in the foreground.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize a month of appointments to the studio calendars",
	Long: `Runs an incremental synchronization of one month: new appointments are
created, changed ones recreated and vanished ones removed from the studio
calendars. Defaults to the current month.

Examples:
  # Synchronize the current month
  clinic-manager sync

  # Preview the changes for May 2025
  clinic-manager sync --month 5 --year 2025 --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncMonth, "month", 0, "Month to synchronize (1-12), defaults to the current month")
	syncCmd.Flags().IntVar(&syncYear, "year", 0, "Year to synchronize, defaults to the current year")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan only: no remote calls and no state changes")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	month, year := currentPeriod(a.loc)
	if syncMonth != 0 {
		month = syncMonth
	}
	if syncYear != 0 {
		year = syncYear
	}

	studios, err := a.directory.StudioCalendars(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve studio calendars: %w", err)
	}

	res, err := a.engine.Run(ctx, reconcile.RunRequest{
		Month:           month,
		Year:            year,
		StudioCalendars: studios,
		DryRun:          syncDryRun,
	}, &logObserver{log: a.log, every: 25})
	if res != nil {
		printSyncResult(a.log, res)
	}
	if err != nil {
		return err
	}

	if syncJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return nil
}

// logObserver logs phases and every n-th progress update.
type logObserver struct {
	log   *zap.Logger
	every int
}

func (o *logObserver) OnPhase(phase reconcile.Phase, message string) {
	o.log.Info(message, zap.String("phase", string(phase)))
}

func (o *logObserver) OnProgress(p reconcile.Progress) {
	if o.every > 0 && p.Processed%o.every != 0 && p.Processed != p.Total {
		return
	}
	o.log.Info("Progress",
		zap.Int("processed", p.Processed),
		zap.Int("total", p.Total),
		zap.Int("changed", p.Changed),
	)
}

func printSyncResult(l *zap.Logger, res *reconcile.Result) {
	l.Info("Synchronization report",
		zap.Int("total", res.TotalProcessed),
		zap.Int("created", res.Created),
		zap.Int("recreated", res.Recreated),
		zap.Int("deleted", res.Deleted),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("skipped", res.Skipped),
		zap.Int("analysis_failures", res.AnalysisFailures),
	)
	for _, e := range res.Errors {
		l.Warn("Appointment error", zap.String("error", e))
	}
	for _, w := range res.Warnings {
		l.Warn("Warning", zap.String("warning", w))
	}
}
