// Package config loads the clinic manager configuration.
//
// Settings come from environment variables, optionally seeded from a .env
// file, and fall back to the `default` struct tags of each section. Nested
// keys map to upper-case variables joined by underscores, so
// calendar.studio_calendars is read from CALENDAR_STUDIO_CALENDARS.
//
// # Configuration Structure
//
// The Config struct is divided into subsections owned by the packages that use them:
//   - Server: HTTP port, API key, JWT secret, job retention
//   - Database: appointments database driver and connection details
//   - Storage: S3/MinIO credentials for the s3 state backend
//   - Log: logging level and format
//   - Calendar: credentials file, time zone, studio calendars, retry pacing
//   - State: sync state backend and location
//   - Schedule: cron expression for periodic syncs
//   - Telemetry: OTLP collector endpoint
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Calendar.TimeZone)
package config
