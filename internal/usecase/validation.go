package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateCreatePatientInput(input CreatePatientInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len([]rune(input.Name)) > 100 {
		errors = append(errors, ValidationError{"name", "must not exceed 100 characters"})
	}

	if strings.TrimSpace(input.Phone) == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	} else if !isValidPhoneNumber(input.Phone) {
		errors = append(errors, ValidationError{"phone", "must be a valid phone number"})
	}

	if input.Age < 0 || input.Age > 120 {
		errors = append(errors, ValidationError{"age", "must be between 0 and 120"})
	}

	if input.CallInDate != "" && !isValidDate(input.CallInDate) {
		errors = append(errors, ValidationError{"callInDate", "must be a valid date (YYYY-MM-DD)"})
	}

	if input.EstimatedAmount < 0 {
		errors = append(errors, ValidationError{"estimatedAmount", "must not be negative"})
	}

	return errors
}

func ValidateAddCallbackInput(input AddCallbackInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.ScheduledDate) == "" {
		errors = append(errors, ValidationError{"scheduledDate", "is required"})
	} else if !isValidDate(input.ScheduledDate) {
		errors = append(errors, ValidationError{"scheduledDate", "must be a valid date (YYYY-MM-DD)"})
	}

	if input.ScheduledTime != "" && !isValidTimeOfDay(input.ScheduledTime) {
		errors = append(errors, ValidationError{"scheduledTime", "must be HH:MM"})
	}

	return errors
}

func validationFailed(errs []ValidationError) error {
	msg := "validation failed: "
	for i, e := range errs {
		if i > 0 {
			msg += ", "
		}
		msg += e.Field + " (" + e.Message + ")"
	}
	return &DomainError{Code: CodeValidation, Message: msg}
}

func isValidPhoneNumber(phone string) bool {
	cleaned := entity.NormalizePhone(phone)
	return len(cleaned) >= 9 && len(cleaned) <= 11
}

func isValidDate(dateStr string) bool {
	if _, err := time.Parse(entity.DateLayout, dateStr); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return true
	}
	return false
}

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func isValidTimeOfDay(s string) bool {
	return timeOfDay.MatchString(s)
}
