package models

import (
	"time"
)

// Class is a teaching group: one owning teacher, a set of enrolled students.
// Timetable slots and attendance records reference it by foreign key; deleting
// a class cascades to both inside a single transaction.
type Class struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Subject string `json:"subject" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`

	TeacherID uint `json:"teacher_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher  User   `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Students []User `json:"students,omitempty" gorm:"many2many:class_students"`

	// Computed fields (not stored)
	StudentCount int `json:"student_count" gorm:"-"`
}

func (Class) TableName() string {
	return "classes"
}
