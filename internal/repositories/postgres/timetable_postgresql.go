package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/cache"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

// Slot lists are ordered by teaching-day position, then start time.
const slotOrder = `array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday'], day), start_time ASC`

type TimetablePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func (t *TimetablePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func NewTimetablePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TimetableRepository {
	return &TimetablePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TimetablePostgreSQL) Create(ctx context.Context, tx *gorm.DB, slot *models.TimetableSlot) error {
	if err := t.getDB(tx).WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create timetable slot: %w", err)
	}
	cache.InvalidateTimetableCache(ctx, t.cacheManager, slot.TeacherID)

	return nil
}

func (t *TimetablePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TimetableSlot, error) {
	var slot models.TimetableSlot
	if err := t.getDB(tx).WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (t *TimetablePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := t.getDB(tx).WithContext(ctx).Delete(&models.TimetableSlot{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete timetable slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateTimetableCache(ctx, t.cacheManager, 0)

	return nil
}

func (t *TimetablePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TimetableFilters) ([]*models.TimetableSlot, error) {
	query := t.applyFilters(t.getDB(tx).WithContext(ctx).Model(&models.TimetableSlot{}), filters)

	var slots []*models.TimetableSlot
	if err := query.Order(slotOrder).Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list timetable slots: %w", err)
	}

	return slots, nil
}

func (t *TimetablePostgreSQL) ListWithDetails(ctx context.Context, tx *gorm.DB, filters repositories.TimetableFilters) ([]*models.TimetableSlot, error) {
	query := t.applyFilters(t.getDB(tx).WithContext(ctx).Model(&models.TimetableSlot{}), filters).
		Preload("Teacher").
		Preload("Class")

	var slots []*models.TimetableSlot
	if err := query.Order(slotOrder).Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list timetable slots: %w", err)
	}

	return slots, nil
}

func (t *TimetablePostgreSQL) GetByDayAndRoom(ctx context.Context, tx *gorm.DB, day models.Weekday, room string) ([]*models.TimetableSlot, error) {
	var slots []*models.TimetableSlot
	err := t.getDB(tx).WithContext(ctx).
		Where("day = ? AND room = ?", day, room).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get slots by day and room: %w", err)
	}
	return slots, nil
}

func (t *TimetablePostgreSQL) GetByDayAndTeacher(ctx context.Context, tx *gorm.DB, day models.Weekday, teacherID uint) ([]*models.TimetableSlot, error) {
	var slots []*models.TimetableSlot
	err := t.getDB(tx).WithContext(ctx).
		Where("day = ? AND teacher_id = ?", day, teacherID).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get slots by day and teacher: %w", err)
	}
	return slots, nil
}

func (t *TimetablePostgreSQL) DeleteByClass(ctx context.Context, tx *gorm.DB, classID uint) error {
	err := t.getDB(tx).WithContext(ctx).Where("class_id = ?", classID).Delete(&models.TimetableSlot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete class slots: %w", err)
	}
	cache.InvalidateTimetableCache(ctx, t.cacheManager, 0)

	return nil
}

func (t *TimetablePostgreSQL) applyFilters(query *gorm.DB, filters repositories.TimetableFilters) *gorm.DB {
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.Day != nil {
		query = query.Where("day = ?", *filters.Day)
	}
	if filters.Room != nil {
		query = query.Where("room = ?", *filters.Room)
	}
	return query
}
