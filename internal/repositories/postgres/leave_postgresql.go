package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

type LeavePostgreSQL struct {
	db *gorm.DB
}

func (l *LeavePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func NewLeavePostgreSQL(db *gorm.DB) repositories.LeaveRepository {
	return &LeavePostgreSQL{db: db}
}

func (l *LeavePostgreSQL) Create(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error {
	if err := l.getDB(tx).WithContext(ctx).Create(leave).Error; err != nil {
		return fmt.Errorf("failed to create leave request: %w", err)
	}
	return nil
}

func (l *LeavePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	err := l.getDB(tx).WithContext(ctx).
		Preload("Student").
		First(&leave, id).Error
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

func (l *LeavePostgreSQL) Update(ctx context.Context, tx *gorm.DB, leave *models.LeaveRequest) error {
	if err := l.getDB(tx).WithContext(ctx).Save(leave).Error; err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	return nil
}

func (l *LeavePostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.LeaveRequest, error) {
	var leaves []*models.LeaveRequest
	err := l.getDB(tx).WithContext(ctx).
		Preload("ReviewedBy").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&leaves).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student leaves: %w", err)
	}

	return leaves, nil
}

func (l *LeavePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.LeaveFilters) ([]*models.LeaveRequest, error) {
	query := l.getDB(tx).WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Preload("Student").
		Preload("ReviewedBy")

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var leaves []*models.LeaveRequest
	if err := query.Order("created_at DESC").Find(&leaves).Error; err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return leaves, nil
}

func (l *LeavePostgreSQL) CountByStatus(ctx context.Context, tx *gorm.DB, status models.LeaveStatus) (int64, error) {
	var count int64
	err := l.getDB(tx).WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count leave requests: %w", err)
	}
	return count, nil
}
