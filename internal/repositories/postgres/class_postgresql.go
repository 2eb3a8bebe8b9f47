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

type ClassPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func (c *ClassPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func NewClassPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *ClassPostgreSQL) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	if err := c.getDB(tx).WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Class, fmt.Sprintf("teacher:%d:*", class.TeacherID))

	return nil
}

func (c *ClassPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	var class models.Class
	if err := c.getDB(tx).WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *ClassPostgreSQL) GetByIDWithStudents(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	var class models.Class
	err := c.getDB(tx).WithContext(ctx).
		Preload("Teacher").
		Preload("Students", activeScope).
		First(&class, id).Error
	if err != nil {
		return nil, err
	}
	class.StudentCount = len(class.Students)

	return &class, nil
}

func (c *ClassPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Class, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var classes []*models.Class
	if err := c.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to get classes: %w", err)
	}
	return classes, nil
}

// Delete removes the class row only. Cascading to slots and attendance is
// the service's job, inside one transaction.
func (c *ClassPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).Select("Students").Delete(&models.Class{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete class: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Class, "teacher:*")

	return nil
}

func (c *ClassPostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error) {
	var classes []*models.Class
	err := c.getDB(tx).WithContext(ctx).
		Preload("Students", activeScope).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher classes: %w", err)
	}
	for _, class := range classes {
		class.StudentCount = len(class.Students)
	}

	return classes, nil
}

func (c *ClassPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Class, error) {
	var classes []*models.Class
	err := c.getDB(tx).WithContext(ctx).
		Preload("Teacher").
		Preload("Students", activeScope).
		Order("created_at DESC").
		Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	for _, class := range classes {
		class.StudentCount = len(class.Students)
	}

	return classes, nil
}

func (c *ClassPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Class, error) {
	var classes []*models.Class
	err := c.getDB(tx).WithContext(ctx).
		Preload("Teacher").
		Joins("JOIN class_students ON class_students.class_id = classes.id").
		Where("class_students.user_id = ?", studentID).
		Order("classes.created_at DESC").
		Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student classes: %w", err)
	}

	return classes, nil
}

func (c *ClassPostgreSQL) AddStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error {
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Class{ID: classID}).
		Association("Students").
		Append(&models.User{ID: studentID})
	if err != nil {
		return fmt.Errorf("failed to add student to class: %w", err)
	}
	return nil
}

func (c *ClassPostgreSQL) RemoveStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) error {
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Class{ID: classID}).
		Association("Students").
		Delete(&models.User{ID: studentID})
	if err != nil {
		return fmt.Errorf("failed to remove student from class: %w", err)
	}
	return nil
}

func (c *ClassPostgreSQL) HasStudent(ctx context.Context, tx *gorm.DB, classID, studentID uint) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Table("class_students").
		Where("class_id = ? AND user_id = ?", classID, studentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check class membership: %w", err)
	}
	return count > 0, nil
}

func (c *ClassPostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, classID, teacherID uint) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Class{}).
		Where("id = ? AND teacher_id = ?", classID, teacherID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check class ownership: %w", err)
	}
	return count > 0, nil
}
