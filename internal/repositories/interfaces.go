package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role   *models.UserRole
	Query  string // matches username or email
	Limit  int
	Offset int
}

type TimetableFilters struct {
	TeacherID *uint
	ClassID   *uint
	Day       *models.Weekday
	Room      *string
}

type AttendanceFilters struct {
	StudentID *uint
	ClassID   *uint
	Date      *time.Time
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

type LeaveFilters struct {
	StudentID *uint
	Status    *models.LeaveStatus
	Type      *models.LeaveType
	Limit     int
	Offset    int
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Deactivate(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	HasRole(ctx context.Context, tx *gorm.DB, id uint, role models.UserRole) (bool, error)
}

type ClassRepository interface {
	Create(ctx context.Context, tx *gorm.DB, class *models.Class) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	GetByIDWithStudents(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Class, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Class, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Class, error)

	// Roster management
	AddStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error
	RemoveStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error
	HasStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) (bool, error)

	// Ownership check
	IsOwnedBy(ctx context.Context, tx *gorm.DB, classID, teacherID uint) (bool, error)
}

type TimetableRepository interface {
	Create(ctx context.Context, tx *gorm.DB, slot *models.TimetableSlot) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TimetableSlot, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters TimetableFilters) ([]*models.TimetableSlot, error)
	ListWithDetails(ctx context.Context, tx *gorm.DB, filters TimetableFilters) ([]*models.TimetableSlot, error)

	// Conflict candidates for the overlap checks: same day + room, or
	// same day + teacher.
	GetByDayAndRoom(ctx context.Context, tx *gorm.DB, day models.Weekday, room string) ([]*models.TimetableSlot, error)
	GetByDayAndTeacher(ctx context.Context, tx *gorm.DB, day models.Weekday, teacherID uint) ([]*models.TimetableSlot, error)

	DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error
}

type AttendanceRepository interface {
	// Upsert keyed on the (student, date, class) unique index; a second
	// mark for the same triple overwrites status and recorder in place.
	Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error

	GetByKey(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time, classID uint) (*models.AttendanceRecord, error)
	List(ctx context.Context, tx *gorm.DB, filters AttendanceFilters) ([]*models.AttendanceRecord, error)
	GetByStudentAndRange(ctx context.Context, tx *gorm.DB, studentID uint, from, to time.Time) ([]*models.AttendanceRecord, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.AttendanceRecord, error)

	DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error
}

type LeaveRepository interface {
	Create(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LeaveRequest, error)
	Update(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error

	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.LeaveRequest, error)
	List(ctx context.Context, tx *gorm.DB, filters LeaveFilters) ([]*models.LeaveRequest, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, status models.LeaveStatus) (int64, error)
}

type DashboardRepository interface {
	CountStudents(ctx context.Context, tx *gorm.DB) (int64, error)
	CountClassesByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) (int64, error)
	CountClassesByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error)
	CountSlotsByTeacherAndDay(ctx context.Context, tx *gorm.DB, teacherID uint, day models.Weekday) (int64, error)
	CountSlotsByStudentAndDay(ctx context.Context, tx *gorm.DB, studentID uint, day models.Weekday) (int64, error)

	GetRecentAttendance(ctx context.Context, tx *gorm.DB, recordedByID *uint, limit int) ([]*models.AttendanceRecord, error)
	GetRecentLeaves(ctx context.Context, tx *gorm.DB, studentID *uint, limit int) ([]*models.LeaveRequest, error)
}
