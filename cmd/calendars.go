package cmd

import (
	"encoding/json"
	"os"

	"clinic-manager/core/calendar"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	calendarsAll  bool
	calendarsJSON bool
)

// calendarsCmd lists the calendars visible to the service account.
var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the managed calendars",
	Long:  `Lists the calendars this service writes to, with the studio each one serves. Use --all to include every calendar visible to the account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		var cals []calendar.CalendarInfo
		if calendarsAll {
			cals, err = a.directory.All(ctx)
		} else {
			cals, err = a.directory.Managed(ctx)
		}
		if err != nil {
			return err
		}

		if calendarsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cals)
		}

		studios, err := a.directory.StudioCalendars(ctx)
		if err != nil {
			return err
		}
		studioOf := make(map[string]int, len(studios))
		for studio, id := range studios {
			studioOf[id] = studio
		}

		for _, c := range cals {
			fields := []zap.Field{
				zap.String("id", c.ID),
				zap.String("access", c.AccessRole),
			}
			if studio, ok := studioOf[c.ID]; ok {
				fields = append(fields, zap.Int("studio", studio))
			}
			a.log.Info(c.Name, fields...)
		}
		a.log.Info("Calendars listed", zap.Int("count", len(cals)))
		return nil
	},
}

func init() {
	calendarsCmd.Flags().BoolVar(&calendarsAll, "all", false, "Include calendars that are not managed")
	calendarsCmd.Flags().BoolVar(&calendarsJSON, "json", false, "Print the calendars as JSON")
	RootCmd.AddCommand(calendarsCmd)
}
