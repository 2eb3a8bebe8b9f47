package models

import (
	"time"

	"gorm.io/datatypes"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type LeaveType string

const (
	LeaveSick     LeaveType = "sick"
	LeavePersonal LeaveType = "personal"
	LeaveFamily   LeaveType = "family"
	LeaveOther    LeaveType = "other"
)

// LeaveRequest is a student's absence request over a date range, scoped to
// one or more classes. Status moves exactly once, pending -> approved or
// pending -> rejected, by a teacher; requests are never deleted.
type LeaveRequest struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	StudentID uint        `json:"student_id" gorm:"not null;index"`
	Type      LeaveType   `json:"type" gorm:"not null;size:20" validate:"required,leave_type"`
	StartDate time.Time   `json:"start_date" gorm:"not null;type:date"`
	EndDate   time.Time   `json:"end_date" gorm:"not null;type:date"`
	Reason    string      `json:"reason" gorm:"not null;type:text" validate:"required,min=1,max=1000"`
	Status    LeaveStatus `json:"status" gorm:"not null;default:pending;size:10;index"`

	// The classes the leave applies to, stored as a JSON array of class ids.
	ClassIDs datatypes.JSONSlice[uint] `json:"class_ids" gorm:"not null"`

	TeacherComment *string    `json:"teacher_comment,omitempty" gorm:"type:text"`
	ReviewedByID   *uint      `json:"reviewed_by_id,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student    User  `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	ReviewedBy *User `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`

	// Populated from ClassIDs on read, not stored.
	Classes []Class `json:"classes,omitempty" gorm:"-"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// Decided reports whether the request has reached a terminal status.
func (l *LeaveRequest) Decided() bool {
	return l.Status == LeaveApproved || l.Status == LeaveRejected
}
