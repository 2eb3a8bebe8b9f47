package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/druk-edu/school-admin-service/internal/models"
)

var (
	timeHHMMRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	monthYMRe  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// BusinessValidator handles business rule validation for scheduling,
// attendance, and leave requests on top of plain struct tags.
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator with custom rules.
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	// Report json field names in validation errors, matching the request
	// bodies clients actually send.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSlotCreate validates timetable slot creation business rules.
func (bv *BusinessValidator) ValidateSlotCreate(req *SlotCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	// Only check interval ordering when both endpoints are well-formed;
	// malformed times are already reported by the tag rules.
	if timeHHMMRe.MatchString(req.StartTime) && timeHHMMRe.MatchString(req.EndTime) && req.StartTime >= req.EndTime {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start time",
			Value:   req.EndTime,
			Rule:    "time_order",
		})
	}

	return errors
}

// ValidateLeaveApply validates leave application business rules.
func (bv *BusinessValidator) ValidateLeaveApply(req *LeaveApplyRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	start, serr := time.Parse("2006-01-02", req.StartDate)
	end, eerr := time.Parse("2006-01-02", req.EndDate)
	if serr == nil && eerr == nil && end.Before(start) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "must not be before start date",
			Value:   req.EndDate,
			Rule:    "date_order",
		})
	}

	return errors
}

// ValidateAttendanceMark validates an attendance mark request.
func (bv *BusinessValidator) ValidateAttendanceMark(req *AttendanceMarkRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Status == nil && req.Present == nil {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "either status or present must be supplied",
			Rule:    "required_without",
		})
	}

	if date, err := time.Parse("2006-01-02", req.Date); err == nil {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if date.After(today) {
			errors = append(errors, ValidationError{
				Field:   "date",
				Message: "cannot be in the future",
				Value:   req.Date,
				Rule:    "no_future_date",
			})
		}
	}

	return errors
}

// ValidateLeaveTransition validates a leave status change. The only legal
// moves are pending -> approved and pending -> rejected.
func (bv *BusinessValidator) ValidateLeaveTransition(current, next models.LeaveStatus) ValidationErrors {
	var errors ValidationErrors

	if next != models.LeaveApproved && next != models.LeaveRejected {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "must be approved or rejected",
			Value:   next,
			Rule:    "status_transition",
		})
	}

	if current != models.LeavePending {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "leave request has already been " + string(current),
			Value:   current,
			Rule:    "status_transition",
		})
	}

	return errors
}

// registerBusinessRules registers custom domain validators.
func (bv *BusinessValidator) registerBusinessRules() {
	// Zero-padded 24h clock time, so string order equals clock order
	bv.validate.RegisterValidation("time_hhmm", func(fl validator.FieldLevel) bool {
		return timeHHMMRe.MatchString(fl.Field().String())
	})

	// Teaching days only, Monday through Friday
	bv.validate.RegisterValidation("school_day", func(fl validator.FieldLevel) bool {
		return models.DayOrder(models.Weekday(fl.Field().String())) >= 0
	})

	// Calendar date as YYYY-MM-DD
	bv.validate.RegisterValidation("date_ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// Calendar month as YYYY-MM
	bv.validate.RegisterValidation("month_ym", func(fl validator.FieldLevel) bool {
		return monthYMRe.MatchString(fl.Field().String())
	})

	// Leave request categories
	bv.validate.RegisterValidation("leave_type", func(fl validator.FieldLevel) bool {
		switch models.LeaveType(fl.Field().String()) {
		case models.LeaveSick, models.LeavePersonal, models.LeaveFamily, models.LeaveOther:
			return true
		}
		return false
	})

	// Usernames: letters, numbers, underscores
	bv.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
}
