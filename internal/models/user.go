package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Username string   `json:"username" gorm:"uniqueIndex;not null;size:30"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;default:student;size:20;index"`

	// Never serialized; populated only by the auth service.
	PasswordHash string `json:"-" gorm:"not null;size:100"`

	// Profile info
	ProfileEmoji string `json:"profile_emoji" gorm:"size:16"`

	// Soft deletion: inactive users are excluded from every query.
	Active bool `json:"-" gorm:"not null;default:true;index"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the view of a user safe to hand to other users.
type PublicUser struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	ProfileEmoji string   `json:"profile_emoji"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		ProfileEmoji: u.ProfileEmoji,
	}
}
