package usecase

import (
	"errors"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidState     = "INVALID_STATE"
	CodeUnknownCohort    = "UNKNOWN_COHORT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeDatabase         = "DATABASE_ERROR"
	CodeQueue            = "QUEUE_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func storeError(message string, err error) error {
	return &TechnicalError{Code: CodeStoreUnavailable, Message: message + ": " + err.Error(), Err: err}
}

// domainFromEntity maps entity sentinels onto domain errors; anything else is
// treated as a store failure.
func domainFromEntity(err error) error {
	switch {
	case errors.Is(err, entity.ErrPatientNotFound),
		errors.Is(err, entity.ErrCallbackNotFound),
		errors.Is(err, entity.ErrReportNotFound):
		return &DomainError{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, entity.ErrDuplicatePhone),
		errors.Is(err, entity.ErrReportExists),
		errors.Is(err, entity.ErrCallbackPending):
		return &DomainError{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrPatientClosed),
		errors.Is(err, entity.ErrPatientNotClosed),
		errors.Is(err, entity.ErrCallbackSettled):
		return &DomainError{Code: CodeInvalidState, Message: err.Error()}
	case errors.Is(err, entity.ErrInvalidPeriod):
		return &DomainError{Code: CodeValidation, Message: err.Error()}
	}
	return storeError("store operation failed", err)
}
