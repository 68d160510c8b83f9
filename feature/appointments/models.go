package appointments

import (
	"database/sql"
	"time"
)

// AppointmentRow is a row of the legacy appointments table.
// Start and end times keep the legacy decimal encoding (8.40 is 08:40).
type AppointmentRow struct {
	ID          int            `gorm:"column:id;primaryKey"`
	Date        *time.Time     `gorm:"column:appointment_date"`
	StartTime   sql.NullString `gorm:"column:start_time"`
	EndTime     sql.NullString `gorm:"column:end_time"`
	Studio      sql.NullInt64  `gorm:"column:studio"`
	Doctor      sql.NullInt64  `gorm:"column:doctor"`
	PatientID   sql.NullString `gorm:"column:patient_id"`
	TypeCode    sql.NullString `gorm:"column:type_code"`
	Notes       sql.NullString `gorm:"column:notes"`
	Description sql.NullString `gorm:"column:description"`
}

// TableName overrides the table name.
func (AppointmentRow) TableName() string {
	return "appointments"
}

// PatientRow is a row of the legacy patient registry.
type PatientRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

// TableName overrides the table name.
func (PatientRow) TableName() string {
	return "patients"
}

// requiredColumns lists the appointment columns the source reads.
var requiredColumns = []string{
	"appointment_date", "start_time", "end_time", "studio", "doctor",
	"patient_id", "type_code", "notes", "description",
}
