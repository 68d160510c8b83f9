// Package database connects to the legacy appointment store.
//
// It wraps GORM to open MySQL or SQLite connections from the application
// configuration, with connection and I/O timeouts and a verifying ping.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table and MissingColumns checks a
// table against the columns a reader needs. The appointment source uses it
// to report a clear error when the legacy schema drifts.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "appointments", "appointment_date", "studio")
package database
