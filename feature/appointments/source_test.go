package appointments

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const schema = `
CREATE TABLE appointments (
	id INTEGER PRIMARY KEY,
	appointment_date DATE,
	start_time REAL,
	end_time REAL,
	studio INTEGER,
	doctor INTEGER,
	patient_id TEXT,
	type_code TEXT,
	notes TEXT,
	description TEXT
);
CREATE TABLE patients (id TEXT PRIMARY KEY, name TEXT);
`

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "clinic.db")})
	require.NoError(t, err)
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO patients (id, name) VALUES ('P1', ' Mario Rossi '), ('P2', 'Anna Verdi')`,
		`INSERT INTO appointments VALUES (1, '2025-05-01', 8.4, 9.0, 1, 2, 'P1', 'VIS', 'first visit', '')`,
		`INSERT INTO appointments VALUES (2, '2025-05-12', 14.05, NULL, 2, 3, 'P2', 'ort', NULL, NULL)`,
		`INSERT INTO appointments VALUES (3, '2025-05-31', NULL, NULL, 0, 0, NULL, NULL, 'call the lab', 'Lab')`,
		`INSERT INTO appointments VALUES (4, '2025-06-01', 9.0, 9.3, 1, 2, 'P1', 'VIS', '', '')`,
		`INSERT INTO appointments VALUES (5, '2025-04-30', 9.0, 9.3, 1, 2, 'P1', 'VIS', '', '')`,
		`INSERT INTO appointments VALUES (6, '2025-05-20', 10.0, 10.3, 1, 2, 'P9', 'CON', '', 'Unknown patient')`,
	}
	for _, s := range stmts {
		require.NoError(t, db.Exec(s).Error)
	}
}

func TestSource_Appointments(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db)

	records, err := NewSource(db, zap.NewNop()).Appointments(context.Background(), 5, 2025)
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, appointment.Date{Year: 2025, Month: time.May, Day: 1}, first.Date)
	assert.Equal(t, appointment.At(8, 40), first.Start)
	assert.Equal(t, appointment.At(9, 0), first.End)
	assert.Equal(t, 1, first.Studio)
	assert.Equal(t, 2, first.Doctor)
	assert.Equal(t, "Mario Rossi", first.PatientName)
	assert.Equal(t, "VIS", first.TypeCode)
	assert.Equal(t, "first visit", first.Notes)

	second := records[1]
	assert.Equal(t, appointment.At(14, 5), second.Start)
	assert.False(t, second.End.Valid)
	assert.Equal(t, "Anna Verdi", second.PatientName)

	unknown := records[2]
	assert.Empty(t, unknown.PatientName)
	assert.Equal(t, "Unknown patient", unknown.Title())

	note := records[3]
	assert.Equal(t, appointment.CategoryDailyNote, note.Category())
	assert.False(t, note.Start.Valid)
	assert.Equal(t, "call the lab", note.Notes)
}

func TestSource_EmptyMonth(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db)

	records, err := NewSource(db, zap.NewNop()).Appointments(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSource_CheckSchema(t *testing.T) {
	db := setupSQLite(t)
	assert.NoError(t, NewSource(db, zap.NewNop()).CheckSchema())

	broken, err := database.Connect(database.Config{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "broken.db")})
	require.NoError(t, err)
	require.NoError(t, broken.Exec("CREATE TABLE appointments (id INTEGER PRIMARY KEY, appointment_date DATE)").Error)

	err = NewSource(broken, zap.NewNop()).CheckSchema()
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "start_time")
	assert.Contains(t, err.Error(), "patients.id")

	assert.Error(t, NewSource(nil, zap.NewNop()).CheckSchema())
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestSource_MySQL(t *testing.T) {
	db, mock := setupMockDB(t)

	day := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "appointment_date", "start_time", "end_time", "studio", "doctor", "patient_id", "type_code", "notes", "description"}).
		AddRow(1, day, "8,30", "9.00", 1, 2, "7", "IMP", "notes", "")
	mock.ExpectQuery("SELECT \\* FROM `appointments` WHERE appointment_date >= \\? AND appointment_date < \\?").
		WithArgs("2025-05-01", "2025-06-01").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT \\* FROM `patients` WHERE id IN \\(\\?\\)").
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("7", "Luca Bianchi"))

	records, err := NewSource(db, zap.NewNop()).Appointments(context.Background(), 5, 2025)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, appointment.At(8, 30), records[0].Start)
	assert.Equal(t, "Luca Bianchi", records[0].PatientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `appointments`").WillReturnError(assert.AnError)

	_, err := NewSource(db, zap.NewNop()).Appointments(context.Background(), 5, 2025)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to query appointments")
}

func TestSource_UnreadableRowKept(t *testing.T) {
	db, mock := setupMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "appointment_date", "start_time", "end_time", "studio", "doctor", "patient_id", "type_code", "notes", "description"}).
		AddRow(1, time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), "25:00", nil, 1, 0, nil, "VIS", "", "Broken")
	mock.ExpectQuery("SELECT \\* FROM `appointments`").WillReturnRows(rows)

	records, err := NewSource(db, zap.NewNop()).Appointments(context.Background(), 5, 2025)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Start.Valid)
	assert.Equal(t, "Broken", records[0].Description)
}

func TestSource_MonthlyCounts(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db)

	counts, err := NewSource(db, zap.NewNop()).MonthlyCounts(context.Background(), 2023, 2025)
	require.NoError(t, err)
	assert.Equal(t, []MonthCount{
		{Year: 2025, Month: 4, Count: 1},
		{Year: 2025, Month: 5, Count: 4},
		{Year: 2025, Month: 6, Count: 1},
	}, counts)
}

func TestSource_MonthlyCounts_MySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT YEAR\\(appointment_date\\) AS year, MONTH\\(appointment_date\\) AS month, COUNT\\(\\*\\) AS count FROM `appointments` WHERE appointment_date >= \\? AND appointment_date < \\? GROUP BY year, month ORDER BY year, month").
		WithArgs("2023-01-01", "2026-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "count"}).AddRow(2024, 2, 17).AddRow(2025, 5, 40))

	counts, err := NewSource(db, zap.NewNop()).MonthlyCounts(context.Background(), 2023, 2025)
	require.NoError(t, err)
	assert.Equal(t, []MonthCount{{Year: 2024, Month: 2, Count: 17}, {Year: 2025, Month: 5, Count: 40}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_MonthlyCounts_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT YEAR").WillReturnError(assert.AnError)

	_, err := NewSource(db, zap.NewNop()).MonthlyCounts(context.Background(), 2023, 2025)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to count appointments")
}
