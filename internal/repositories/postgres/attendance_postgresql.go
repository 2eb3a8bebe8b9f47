package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

type AttendancePostgreSQL struct {
	db *gorm.DB
}

func (a *AttendancePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func NewAttendancePostgreSQL(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendancePostgreSQL{db: db}
}

// Upsert inserts or updates the mark for a (student, date, class) triple in
// one statement. The ON CONFLICT clause rides the compound unique index, so
// concurrent marks for the same triple cannot produce duplicate rows.
func (a *AttendancePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error {
	err := a.getDB(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_id"},
			{Name: "date"},
			{Name: "class_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"status", "recorded_by_id", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	return nil
}

func (a *AttendancePostgreSQL) GetByKey(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time, classID uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := a.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND date = ? AND class_id = ?", studentID, date.Format("2006-01-02"), classID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (a *AttendancePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttendanceFilters) ([]*models.AttendanceRecord, error) {
	query := a.getDB(tx).WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Preload("Student").
		Preload("RecordedBy")

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.Date != nil {
		query = query.Where("date = ?", filters.Date.Format("2006-01-02"))
	}
	if filters.DateFrom != nil {
		query = query.Where("date >= ?", filters.DateFrom.Format("2006-01-02"))
	}
	if filters.DateTo != nil {
		query = query.Where("date <= ?", filters.DateTo.Format("2006-01-02"))
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var records []*models.AttendanceRecord
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return records, nil
}

func (a *AttendancePostgreSQL) GetByStudentAndRange(ctx context.Context, tx *gorm.DB, studentID uint, from, to time.Time) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord
	err := a.getDB(tx).WithContext(ctx).
		Preload("Class").
		Where("student_id = ? AND date >= ? AND date <= ?",
			studentID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student attendance: %w", err)
	}

	return records, nil
}

func (a *AttendancePostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord
	err := a.getDB(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student attendance: %w", err)
	}

	return records, nil
}

func (a *AttendancePostgreSQL) DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error {
	err := a.getDB(tx).WithContext(ctx).Where("class_id = ?", classID).Delete(&models.AttendanceRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete class attendance: %w", err)
	}
	return nil
}
