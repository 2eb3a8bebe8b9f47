package validator

// RegisterRequest represents the request structure for user registration.
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=30,username"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Role         string `json:"role" validate:"omitempty,oneof=student teacher admin"`
	ProfileEmoji string `json:"profile_emoji" validate:"omitempty,max=16"`
}

// LoginRequest represents the request structure for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest represents a self-service profile update.
type ProfileUpdateRequest struct {
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	ProfileEmoji *string `json:"profile_emoji" validate:"omitempty,max=16"`
	Password     *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// ClassCreateRequest represents the request structure for creating classes.
type ClassCreateRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Subject string `json:"subject" validate:"required,min=1,max=100"`
}

// SlotCreateRequest represents the request structure for creating a
// timetable slot.
type SlotCreateRequest struct {
	Subject   string `json:"subject" validate:"required,min=1,max=100"`
	Day       string `json:"day" validate:"required,school_day"`
	StartTime string `json:"start_time" validate:"required,time_hhmm"`
	EndTime   string `json:"end_time" validate:"required,time_hhmm"`
	Room      string `json:"room" validate:"required,min=1,max=50"`
	ClassID   uint   `json:"class_id" validate:"required"`
}

// AttendanceMarkRequest represents an attendance upsert. Either the
// tri-state status or the legacy present flag must be supplied (enforced by
// ValidateAttendanceMark); when both are present the status wins.
type AttendanceMarkRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Date      string  `json:"date" validate:"required,date_ymd"`
	ClassID   uint    `json:"class_id" validate:"required"`
	Status    *string `json:"status" validate:"omitempty,oneof=present late absent"`
	Present   *bool   `json:"present"`
}

// LeaveApplyRequest represents a student leave application.
type LeaveApplyRequest struct {
	Type      string `json:"type" validate:"required,leave_type"`
	StartDate string `json:"start_date" validate:"required,date_ymd"`
	EndDate   string `json:"end_date" validate:"required,date_ymd"`
	Reason    string `json:"reason" validate:"required,min=1,max=1000"`
	ClassIDs  []uint `json:"class_ids" validate:"required,min=1,dive,required"`
}

// LeaveStatusRequest represents a teacher's decision on a leave request.
type LeaveStatusRequest struct {
	Status  string  `json:"status" validate:"required,oneof=approved rejected"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}
