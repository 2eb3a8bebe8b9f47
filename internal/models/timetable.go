package models

import (
	"time"
)

type Weekday string

const (
	DayMonday    Weekday = "Monday"
	DayTuesday   Weekday = "Tuesday"
	DayWednesday Weekday = "Wednesday"
	DayThursday  Weekday = "Thursday"
	DayFriday    Weekday = "Friday"
)

// SchoolDays lists the teaching days in week order.
var SchoolDays = []Weekday{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

// DayOrder returns the position of a day within the teaching week,
// or -1 for anything that is not a teaching day.
func DayOrder(d Weekday) int {
	for i, day := range SchoolDays {
		if day == d {
			return i
		}
	}
	return -1
}

// TimetableSlot is a recurring weekly booking: a class meets in a room on a
// given day over a half-open [StartTime, EndTime) interval. Times are
// zero-padded "HH:MM" strings, so lexicographic order equals clock order.
//
// The slot is the single source of truth for scheduling; the class it
// references carries only roster and ownership. The unique index on
// (day, room, start_time) backstops the service-level conflict checks when
// two creations race.
type TimetableSlot struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	Subject   string  `json:"subject" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Day       Weekday `json:"day" gorm:"not null;size:10;uniqueIndex:idx_slot_room,priority:1" validate:"required,school_day"`
	StartTime string  `json:"start_time" gorm:"not null;size:5;uniqueIndex:idx_slot_room,priority:3" validate:"required,time_hhmm"`
	EndTime   string  `json:"end_time" gorm:"not null;size:5" validate:"required,time_hhmm"`
	Room      string  `json:"room" gorm:"not null;size:50;uniqueIndex:idx_slot_room,priority:2" validate:"required,min=1,max=50"`

	TeacherID uint `json:"teacher_id" gorm:"not null;index:idx_slot_teacher"`
	ClassID   uint `json:"class_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher User  `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Class   Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (TimetableSlot) TableName() string {
	return "timetable_slots"
}

// Overlaps reports whether two half-open "HH:MM" intervals share any instant:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1. Boundary-adjacent
// intervals (e1 == s2) do not overlap.
func Overlaps(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}

// OverlapsSlot applies the overlap predicate to another slot's interval.
func (s *TimetableSlot) OverlapsSlot(other *TimetableSlot) bool {
	return Overlaps(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}
