package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrClassNotFound = errors.New("class not found")
	ErrSlotNotFound  = errors.New("timetable slot not found")
	ErrLeaveNotFound = errors.New("leave request not found")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateEmail     = errors.New("email already registered")

	ErrStudentNotEnrolled     = errors.New("student is not enrolled in this class")
	ErrStudentAlreadyEnrolled = errors.New("student is already enrolled in this class")
	ErrNotAStudent            = errors.New("user is not a student")
)

// ===== CUSTOM ERROR TYPES =====

// PermissionError signals that the actor is not allowed to perform an
// action on a resource.
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ConflictError signals that a timetable slot collides with an existing
// booking. Kind is "room" or "teacher".
type ConflictError struct {
	Kind      string `json:"kind"`
	Day       string `json:"day"`
	Room      string `json:"room"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SlotID    uint   `json:"slot_id,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict on %s %s-%s in room %s", e.Kind, e.Day, e.StartTime, e.EndTime, e.Room)
}

// BusinessRuleError signals that a request violates a domain rule.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}
