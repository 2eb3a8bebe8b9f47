package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

// mockRepository is a hand-rolled in-memory Repository for service tests.
// Sub-repositories are stubbed individually; anything a test does not wire
// up panics through the embedded nil interface.
type mockRepository struct {
	user       repositories.UserRepository
	class      repositories.ClassRepository
	timetable  repositories.TimetableRepository
	attendance repositories.AttendanceRepository
	leave      repositories.LeaveRepository
	dashboard  repositories.DashboardRepository
}

func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) Class() repositories.ClassRepository           { return m.class }
func (m *mockRepository) Timetable() repositories.TimetableRepository   { return m.timetable }
func (m *mockRepository) Attendance() repositories.AttendanceRepository { return m.attendance }
func (m *mockRepository) Leave() repositories.LeaveRepository           { return m.leave }
func (m *mockRepository) Dashboard() repositories.DashboardRepository   { return m.dashboard }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USER STUB =====

type stubUserRepo struct {
	repositories.UserRepository
	users  map[uint]*models.User
	nextID uint
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	s := &stubUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
		if u.ID > s.nextID {
			s.nextID = u.ID
		}
	}
	return s
}

func (s *stubUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserRepo) HasRole(ctx context.Context, tx *gorm.DB, id uint, role models.UserRole) (bool, error) {
	u, ok := s.users[id]
	return ok && u.Role == role, nil
}

// ===== CLASS STUB =====

type stubClassRepo struct {
	repositories.ClassRepository
	classes  map[uint]*models.Class
	enrolled map[uint]map[uint]bool // classID -> studentID
}

func newStubClassRepo(classes ...*models.Class) *stubClassRepo {
	s := &stubClassRepo{
		classes:  make(map[uint]*models.Class),
		enrolled: make(map[uint]map[uint]bool),
	}
	for _, c := range classes {
		s.classes[c.ID] = c
	}
	return s
}

func (s *stubClassRepo) enroll(classID, studentID uint) {
	if s.enrolled[classID] == nil {
		s.enrolled[classID] = make(map[uint]bool)
	}
	s.enrolled[classID][studentID] = true
}

func (s *stubClassRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	if c, ok := s.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubClassRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Class, error) {
	seen := make(map[uint]bool)
	var out []*models.Class
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := s.classes[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubClassRepo) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error) {
	var out []*models.Class
	for _, c := range s.classes {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubClassRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Class, error) {
	var out []*models.Class
	for classID, students := range s.enrolled {
		if students[studentID] {
			out = append(out, s.classes[classID])
		}
	}
	return out, nil
}

func (s *stubClassRepo) HasStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) (bool, error) {
	return s.enrolled[classID][studentID], nil
}

func (s *stubClassRepo) AddStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error {
	s.enroll(classID, studentID)
	return nil
}

func (s *stubClassRepo) RemoveStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error {
	delete(s.enrolled[classID], studentID)
	return nil
}

func (s *stubClassRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(s.classes, id)
	delete(s.enrolled, id)
	return nil
}

// ===== TIMETABLE STUB =====

type stubTimetableRepo struct {
	repositories.TimetableRepository
	slots  []*models.TimetableSlot
	nextID uint
}

func newStubTimetableRepo(slots ...*models.TimetableSlot) *stubTimetableRepo {
	s := &stubTimetableRepo{slots: slots}
	for _, slot := range slots {
		if slot.ID > s.nextID {
			s.nextID = slot.ID
		}
	}
	return s
}

func (s *stubTimetableRepo) Create(ctx context.Context, tx *gorm.DB, slot *models.TimetableSlot) error {
	s.nextID++
	slot.ID = s.nextID
	s.slots = append(s.slots, slot)
	return nil
}

func (s *stubTimetableRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TimetableSlot, error) {
	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTimetableRepo) GetByDayAndRoom(ctx context.Context, tx *gorm.DB, day models.Weekday, room string) ([]*models.TimetableSlot, error) {
	var out []*models.TimetableSlot
	for _, slot := range s.slots {
		if slot.Day == day && slot.Room == room {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *stubTimetableRepo) GetByDayAndTeacher(ctx context.Context, tx *gorm.DB, day models.Weekday, teacherID uint) ([]*models.TimetableSlot, error) {
	var out []*models.TimetableSlot
	for _, slot := range s.slots {
		if slot.Day == day && slot.TeacherID == teacherID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *stubTimetableRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TimetableFilters) ([]*models.TimetableSlot, error) {
	return s.filtered(filters), nil
}

func (s *stubTimetableRepo) ListWithDetails(ctx context.Context, tx *gorm.DB, filters repositories.TimetableFilters) ([]*models.TimetableSlot, error) {
	return s.filtered(filters), nil
}

func (s *stubTimetableRepo) filtered(filters repositories.TimetableFilters) []*models.TimetableSlot {
	var out []*models.TimetableSlot
	for _, slot := range s.slots {
		if filters.TeacherID != nil && slot.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.ClassID != nil && slot.ClassID != *filters.ClassID {
			continue
		}
		out = append(out, slot)
	}
	return out
}

func (s *stubTimetableRepo) DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error {
	kept := s.slots[:0]
	for _, slot := range s.slots {
		if slot.ClassID != classID {
			kept = append(kept, slot)
		}
	}
	s.slots = kept
	return nil
}

// ===== ATTENDANCE STUB =====

type stubAttendanceRepo struct {
	repositories.AttendanceRepository
	records map[string]*models.AttendanceRecord
	nextID  uint
}

func newStubAttendanceRepo() *stubAttendanceRepo {
	return &stubAttendanceRepo{records: make(map[string]*models.AttendanceRecord)}
}

func attendanceKey(studentID uint, date time.Time, classID uint) string {
	return fmt.Sprintf("%d|%s|%d", studentID, date.Format("2006-01-02"), classID)
}

func (s *stubAttendanceRepo) Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error {
	key := attendanceKey(record.StudentID, record.Date, record.ClassID)
	if existing, ok := s.records[key]; ok {
		existing.Status = record.Status
		existing.RecordedByID = record.RecordedByID
		return nil
	}
	s.nextID++
	record.ID = s.nextID
	s.records[key] = record
	return nil
}

func (s *stubAttendanceRepo) GetByKey(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time, classID uint) (*models.AttendanceRecord, error) {
	if r, ok := s.records[attendanceKey(studentID, date, classID)]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAttendanceRepo) GetByStudentAndRange(ctx context.Context, tx *gorm.DB, studentID uint, from, to time.Time) ([]*models.AttendanceRecord, error) {
	var out []*models.AttendanceRecord
	for _, r := range s.records {
		if r.StudentID == studentID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubAttendanceRepo) DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error {
	for key, r := range s.records {
		if r.ClassID == classID {
			delete(s.records, key)
		}
	}
	return nil
}

// ===== LEAVE STUB =====

type stubLeaveRepo struct {
	repositories.LeaveRepository
	leaves map[uint]*models.LeaveRequest
	nextID uint
}

func newStubLeaveRepo(leaves ...*models.LeaveRequest) *stubLeaveRepo {
	s := &stubLeaveRepo{leaves: make(map[uint]*models.LeaveRequest)}
	for _, l := range leaves {
		s.leaves[l.ID] = l
		if l.ID > s.nextID {
			s.nextID = l.ID
		}
	}
	return s
}

func (s *stubLeaveRepo) Create(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error {
	s.nextID++
	leave.ID = s.nextID
	s.leaves[leave.ID] = leave
	return nil
}

func (s *stubLeaveRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LeaveRequest, error) {
	if l, ok := s.leaves[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLeaveRepo) Update(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error {
	s.leaves[leave.ID] = leave
	return nil
}

func (s *stubLeaveRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.LeaveRequest, error) {
	var out []*models.LeaveRequest
	for _, l := range s.leaves {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out, nil
}
