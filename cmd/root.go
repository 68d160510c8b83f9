package cmd

import (
	"fmt"
	"os"

	"clinic-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "clinic-manager",
	Short: "Clinic appointment calendar service",
	Long: `Clinic Manager keeps the studio calendars in step with the clinic's
appointment records. It runs incremental month synchronizations, bulk
calendar purges and an HTTP API to drive both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding with the debug config gives readable ISO timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
