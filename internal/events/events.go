package events

import "time"

// Topics published by the service.
const (
	TopicLeaveStatusChanged       = "school.leave.status_changed"
	TopicAttendanceBelowThreshold = "school.attendance.below_threshold"
)

// LeaveStatusChangedEvent is emitted when a teacher decides a leave request.
type LeaveStatusChangedEvent struct {
	LeaveID    uint      `json:"leave_id"`
	StudentID  uint      `json:"student_id"`
	Status     string    `json:"status"`
	ReviewedBy uint      `json:"reviewed_by"`
	Comment    string    `json:"comment,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AttendanceBelowThresholdEvent is emitted when a student's attendance
// percentage for a month drops below the configured threshold.
type AttendanceBelowThresholdEvent struct {
	StudentID  uint      `json:"student_id"`
	ClassID    uint      `json:"class_id"`
	Month      string    `json:"month"`
	Percentage float64   `json:"percentage"`
	Threshold  float64   `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}
