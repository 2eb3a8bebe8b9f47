package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

type dashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardPostgreSQL{db: db}
}

func (r *dashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== DASHBOARD COUNTS =====

func (r *dashboardPostgreSQL) CountStudents(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND active = ?", models.RoleStudent, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}

	return count, nil
}

func (r *dashboardPostgreSQL) CountClassesByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Class{}).
		Where("teacher_id = ?", teacherID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count teacher classes: %w", err)
	}

	return count, nil
}

func (r *dashboardPostgreSQL) CountClassesByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Table("class_students").
		Where("user_id = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count student classes: %w", err)
	}

	return count, nil
}

func (r *dashboardPostgreSQL) CountSlotsByTeacherAndDay(ctx context.Context, tx *gorm.DB, teacherID uint, day models.Weekday) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.TimetableSlot{}).
		Where("teacher_id = ? AND day = ?", teacherID, day).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count teacher slots: %w", err)
	}

	return count, nil
}

func (r *dashboardPostgreSQL) CountSlotsByStudentAndDay(ctx context.Context, tx *gorm.DB, studentID uint, day models.Weekday) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.TimetableSlot{}).
		Joins("JOIN class_students ON class_students.class_id = timetable_slots.class_id").
		Where("class_students.user_id = ? AND timetable_slots.day = ?", studentID, day).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count student slots: %w", err)
	}

	return count, nil
}

// ===== RECENT ACTIVITY =====

func (r *dashboardPostgreSQL) GetRecentAttendance(ctx context.Context, tx *gorm.DB, recordedByID *uint, limit int) ([]*models.AttendanceRecord, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).
		Preload("Student").
		Preload("Class")

	if recordedByID != nil {
		query = query.Where("recorded_by_id = ?", *recordedByID)
	}

	var records []*models.AttendanceRecord
	if err := query.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent attendance: %w", err)
	}

	return records, nil
}

func (r *dashboardPostgreSQL) GetRecentLeaves(ctx context.Context, tx *gorm.DB, studentID *uint, limit int) ([]*models.LeaveRequest, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Preload("Student")

	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var leaves []*models.LeaveRequest
	if err := query.Order("created_at DESC").Limit(limit).Find(&leaves).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent leaves: %w", err)
	}

	return leaves, nil
}
