package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	purgeCalendar string
	yesConfirm    bool
)

// purgeCmd deletes every event of a managed calendar.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every event of a managed calendar",
	Long: `Counts the events of a managed calendar and deletes them all. Sync state
entries of the deleted events are forgotten, so a later sync recreates the
events of appointments that still exist.

Examples:
  # Purge with interactive confirmation
  clinic-manager purge --calendar blu@group.calendar.google.com

  # Purge with auto-confirm (non-interactive)
  clinic-manager purge --calendar blu@group.calendar.google.com --yes`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeCalendar, "calendar", "", "Calendar id to purge")
	purgeCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	_ = purgeCmd.MarkFlagRequired("calendar")
	RootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	managed, err := a.directory.IsManaged(ctx, purgeCalendar)
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}
	if !managed {
		return fmt.Errorf("calendar %s is not managed by this service", purgeCalendar)
	}

	if !confirmDestructiveAction(fmt.Sprintf("delete every event of %s", purgeCalendar)) {
		a.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	step := 0
	res, err := a.purger.Purge(ctx, purgeCalendar, func(deleted, total int) {
		// Log roughly every 10%.
		if total == 0 || deleted*10/total > step || deleted == total {
			step = deleted * 10 / max(total, 1)
			a.log.Info("Purge progress", zap.Int("deleted", deleted), zap.Int("total", total))
		}
	})
	if err != nil {
		for _, w := range res.Warnings {
			a.log.Warn(w)
		}
		return err
	}

	a.log.Info(res.Message, zap.Int("deleted", res.Deleted), zap.Int("failed", res.Failed), zap.Int("forgotten", res.Forgotten))
	for _, e := range res.Errors {
		a.log.Warn("Event not deleted", zap.String("error", e))
	}
	for _, w := range res.Warnings {
		a.log.Warn(w)
	}
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(action string) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  Type 'yes' to %s: ", action)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
