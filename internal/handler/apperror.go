package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrDayExists            = &AppError{http.StatusConflict, "DAY_EXISTS", "A ledger day already exists for this date"}
	ErrOpeningBalanceLocked = &AppError{http.StatusForbidden, "OPENING_BALANCE_LOCKED", "Opening balance can only be changed on January 1st"}
	ErrDateMismatch         = &AppError{http.StatusBadRequest, "DATE_MISMATCH", "Date does not match the ledger day"}
	ErrInvalidAmount        = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero with at most 2 decimals"}
	ErrInvalidBalance       = &AppError{http.StatusBadRequest, "INVALID_BALANCE", "Balance must have at most 2 decimals"}
	ErrUnknownCategory      = &AppError{http.StatusBadRequest, "UNKNOWN_CATEGORY", "Category is not in the category table"}
	ErrInvalidKind          = &AppError{http.StatusBadRequest, "INVALID_KIND", "Kind must be receipt, expense or other"}
	ErrInvalidVATRate       = &AppError{http.StatusBadRequest, "INVALID_VAT_RATE", "VAT rate must be none, 9% or 21%"}
	ErrInvalidMonth         = &AppError{http.StatusBadRequest, "INVALID_MONTH", "Month must be formatted YYYY-MM"}
	ErrInvalidDate          = &AppError{http.StatusBadRequest, "INVALID_DATE", "Date must be formatted YYYY-MM-DD"}

	ErrInvalidIdempotencyKey = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key header must be at most 255 characters"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
)
