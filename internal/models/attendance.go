package models

import (
	"time"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is one presence mark per (student, date, class). The
// compound unique index makes a concurrent second mark for the same triple an
// update rather than a duplicate row.
type AttendanceRecord struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	StudentID uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_mark,priority:1"`
	Date      time.Time        `json:"date" gorm:"not null;type:date;uniqueIndex:idx_attendance_mark,priority:2"`
	ClassID   uint             `json:"class_id" gorm:"not null;uniqueIndex:idx_attendance_mark,priority:3"`
	Status    AttendanceStatus `json:"status" gorm:"not null;size:10" validate:"required,oneof=present late absent"`

	RecordedByID uint `json:"recorded_by_id" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student    User  `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Class      Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	RecordedBy User  `json:"recorded_by,omitempty" gorm:"foreignKey:RecordedByID"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// Present reports whether the status counts as attended for boolean-style
// consumers. Late students were in the room; only absences lose the mark.
func (r *AttendanceRecord) Present() bool {
	return r.Status == AttendancePresent || r.Status == AttendanceLate
}

// AttendanceSummary is derived from a record list, never persisted.
type AttendanceSummary struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Late       int `json:"late"`
	Absent     int `json:"absent"`
	Percentage int `json:"percentage"`
}
