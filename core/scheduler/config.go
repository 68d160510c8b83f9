package scheduler

// Config holds configuration for the periodic synchronization.
type Config struct {
	// Cron is a standard five field cron expression. Empty disables scheduling.
	Cron string `mapstructure:"cron" default:""`
}

// Enabled reports whether a schedule is configured.
func (c Config) Enabled() bool {
	return c.Cron != ""
}
