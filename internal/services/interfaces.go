package services

import (
	"context"
	"time"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type ProfileUpdateRequest = validator.ProfileUpdateRequest
type CreateClassRequest = validator.ClassCreateRequest
type CreateSlotRequest = validator.SlotCreateRequest
type MarkAttendanceRequest = validator.AttendanceMarkRequest
type ApplyLeaveRequest = validator.LeaveApplyRequest
type LeaveDecisionRequest = validator.LeaveStatusRequest

type AuthResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type ClassResponse struct {
	*models.Class
	CanEdit bool `json:"can_edit"`
}

type ClassListResponse struct {
	Classes []*ClassResponse `json:"classes"`
	Total   int              `json:"total"`
}

type SlotResponse struct {
	*models.TimetableSlot
	CanDelete bool `json:"can_delete"`
}

type TimetableResponse struct {
	Slots []*SlotResponse `json:"slots"`
	Total int             `json:"total"`
}

type AttendanceRecordResponse struct {
	*models.AttendanceRecord
	// Slot descriptors of the class the mark belongs to, joined for the
	// student month view.
	Slots []*models.TimetableSlot `json:"slots,omitempty"`
}

type AttendanceListResponse struct {
	Records []*AttendanceRecordResponse `json:"records"`
	Total   int                         `json:"total"`
}

type AttendanceMonthResponse struct {
	Month   string                      `json:"month"`
	Records []*AttendanceRecordResponse `json:"records"`
	Summary models.AttendanceSummary    `json:"summary"`
}

type LeaveResponse struct {
	*models.LeaveRequest
	CanDecide bool `json:"can_decide"`
}

type LeaveListResponse struct {
	Leaves []*LeaveResponse `json:"leaves"`
	Total  int              `json:"total"`
}

type UserListResponse struct {
	Users []models.PublicUser `json:"users"`
	Total int64               `json:"total"`
}

type TeacherDashboardResponse struct {
	StudentCount   int64                      `json:"student_count"`
	ClassCount     int64                      `json:"class_count"`
	PendingLeaves  int64                      `json:"pending_leaves"`
	SlotsToday     int64                      `json:"slots_today"`
	RecentActivity []DashboardActivity        `json:"recent_activity"`
	RecentMarks    []*models.AttendanceRecord `json:"recent_marks"`
}

type StudentDashboardResponse struct {
	ClassCount     int64                    `json:"class_count"`
	SlotsToday     int64                    `json:"slots_today"`
	Attendance     models.AttendanceSummary `json:"attendance"`
	RecentActivity []DashboardActivity      `json:"recent_activity"`
	RecentLeaves   []*models.LeaveRequest   `json:"recent_leaves"`
}

type DashboardActivity struct {
	Kind       string    `json:"kind"` // "attendance" or "leave"
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExportResult is a rendered spreadsheet ready to stream to the client.
type ExportResult struct {
	FileName string
	Content  []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
}

type UserService interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, req *ProfileUpdateRequest) (*models.User, error)

	// Directory for teachers building rosters
	ListStudents(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)

	// Admin operations
	List(ctx context.Context, filters repositories.UserFilters, actorID uint) (*UserListResponse, error)
	Deactivate(ctx context.Context, id uint, actorID uint) error
}

type ClassService interface {
	Create(ctx context.Context, req *CreateClassRequest, teacherID uint) (*ClassResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*ClassResponse, error)
	List(ctx context.Context, actorID uint) (*ClassListResponse, error)

	// Delete cascades: attendance records, then slots, then the class,
	// all in one transaction.
	Delete(ctx context.Context, id uint, actorID uint) error

	// Roster management (owning teacher only)
	GetRoster(ctx context.Context, classID uint, actorID uint) ([]models.PublicUser, error)
	AddStudent(ctx context.Context, classID, studentID uint, actorID uint) error
	RemoveStudent(ctx context.Context, classID, studentID uint, actorID uint) error
}

type TimetableService interface {
	// Create runs the full booking contract: field and time validation,
	// class ownership, then room-conflict and teacher-conflict checks
	// inside a single transaction.
	Create(ctx context.Context, req *CreateSlotRequest, teacherID uint) (*SlotResponse, error)
	Delete(ctx context.Context, slotID uint, actorID uint) error

	List(ctx context.Context, actorID uint) (*TimetableResponse, error)
	ListForStudent(ctx context.Context, studentID uint) (*TimetableResponse, error)
}

type AttendanceService interface {
	// Mark is an atomic upsert keyed on (student, date, class).
	Mark(ctx context.Context, req *MarkAttendanceRequest, teacherID uint) (*models.AttendanceRecord, error)

	List(ctx context.Context, filters repositories.AttendanceFilters, actorID uint) (*AttendanceListResponse, error)
	GetStudentMonth(ctx context.Context, studentID uint, month string) (*AttendanceMonthResponse, error)
	GetStudentSummary(ctx context.Context, studentID uint, month string) (*models.AttendanceSummary, error)
}

type LeaveService interface {
	Apply(ctx context.Context, req *ApplyLeaveRequest, studentID uint) (*LeaveResponse, error)
	GetByStudent(ctx context.Context, studentID uint) (*LeaveListResponse, error)

	// List is the teacher view: every student's requests.
	List(ctx context.Context, filters repositories.LeaveFilters, actorID uint) (*LeaveListResponse, error)

	// Decide moves a pending request to approved or rejected, exactly once.
	Decide(ctx context.Context, leaveID uint, req *LeaveDecisionRequest, reviewerID uint) (*LeaveResponse, error)
}

type DashboardService interface {
	TeacherDashboard(ctx context.Context, teacherID uint) (*TeacherDashboardResponse, error)
	StudentDashboard(ctx context.Context, studentID uint) (*StudentDashboardResponse, error)
}

type ExportService interface {
	// AttendanceSheet renders a class's attendance for one month as xlsx.
	AttendanceSheet(ctx context.Context, classID uint, month string, actorID uint) (*ExportResult, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	User() UserService
	Class() ClassService
	Timetable() TimetableService
	Attendance() AttendanceService
	Leave() LeaveService
	Dashboard() DashboardService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
