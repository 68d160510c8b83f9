package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/database"
	"clinic-manager/core/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSchema is returned when the legacy tables lack required columns.
var ErrSchema = errors.New("appointments schema mismatch")

// Source reads appointment records for a month from the legacy database.
type Source struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSource creates a source over db.
func NewSource(db *gorm.DB, logger *zap.Logger) *Source {
	return &Source{db: db, logger: logger}
}

// CheckSchema verifies the appointments and patients tables expose the columns read.
func (s *Source) CheckSchema() error {
	if s.db == nil {
		return errors.New("database not connected")
	}
	missing, err := database.MissingColumns(s.db, AppointmentRow{}.TableName(), requiredColumns...)
	if err != nil {
		return err
	}
	patients, err := database.MissingColumns(s.db, PatientRow{}.TableName(), "id", "name")
	if err != nil {
		return err
	}
	for _, c := range patients {
		missing = append(missing, "patients."+c)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}

// Appointments returns the records dated within month/year, ordered by date,
// start time and id. Patient names are resolved from the registry; rows whose
// patient is unknown keep an empty name.
func (s *Source) Appointments(ctx context.Context, month, year int) ([]appointment.Record, error) {
	if s.db == nil {
		return nil, errors.New("database not connected")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var rows []AppointmentRow
	err := s.db.WithContext(ctx).
		Where("appointment_date >= ? AND appointment_date < ?", from.Format(time.DateOnly), to.Format(time.DateOnly)).
		Order("appointment_date, start_time, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}

	names, err := s.patientNames(ctx, rows)
	if err != nil {
		return nil, err
	}

	records := make([]appointment.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row, names)
		if err != nil {
			// The record is kept with the unparsable field unset; the engine
			// reports records it cannot place.
			s.logger.Warn("Appointment row not fully readable", zap.Int("id", row.ID), zap.Error(err))
		}
		records = append(records, rec)
	}

	s.logger.Debug("Appointments loaded",
		zap.Int("month", month), zap.Int("year", year), zap.Int("count", len(records)))
	return records, nil
}

// MonthCount is the number of appointments dated in one month.
type MonthCount struct {
	Year  int `json:"-"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// MonthlyCounts returns the appointment count of every month of the years
// fromYear..toYear that has at least one appointment, ordered by year and month.
func (s *Source) MonthlyCounts(ctx context.Context, fromYear, toYear int) ([]MonthCount, error) {
	if s.db == nil {
		return nil, errors.New("database not connected")
	}

	from := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(toYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var counts []MonthCount
	err := s.db.WithContext(ctx).
		Model(&AppointmentRow{}).
		Select(monthColumns(s.db)+", COUNT(*) AS count").
		Where("appointment_date >= ? AND appointment_date < ?", from.Format(time.DateOnly), to.Format(time.DateOnly)).
		Group("year, month").
		Order("year, month").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	return counts, nil
}

// monthColumns extracts year and month of appointment_date in the connection's dialect.
func monthColumns(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%Y', appointment_date) AS INTEGER) AS year, CAST(strftime('%m', appointment_date) AS INTEGER) AS month"
	}
	return "YEAR(appointment_date) AS year, MONTH(appointment_date) AS month"
}

func (s *Source) patientNames(ctx context.Context, rows []AppointmentRow) (map[string]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, row := range rows {
		id := utils.ToString(row.PatientID.String)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var patients []PatientRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	for _, p := range patients {
		names[utils.ToString(p.ID)] = utils.ToString(p.Name)
	}
	return names, nil
}

func toRecord(row AppointmentRow, names map[string]string) (appointment.Record, error) {
	var errs []error

	rec := appointment.Record{
		Studio:      utils.ToInt(row.Studio.Int64),
		Doctor:      utils.ToInt(row.Doctor.Int64),
		PatientName: names[utils.ToString(row.PatientID.String)],
		Description: utils.ToString(row.Description.String),
		Notes:       row.Notes.String,
		TypeCode:    utils.ToString(row.TypeCode.String),
	}

	if row.Date != nil {
		d, err := appointment.ParseDate(*row.Date)
		if err != nil {
			errs = append(errs, err)
		}
		rec.Date = d
	}

	start, err := appointment.ParseClock(row.StartTime.String)
	if err != nil {
		errs = append(errs, fmt.Errorf("start: %w", err))
	}
	rec.Start = start

	end, err := appointment.ParseClock(row.EndTime.String)
	if err != nil {
		errs = append(errs, fmt.Errorf("end: %w", err))
	}
	rec.End = end

	return rec, errors.Join(errs...)
}
