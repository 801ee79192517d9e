// Package errors provides custom error types for the Monedero API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput       = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound           = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer     = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrServiceUnavailable = &AppError{Code: "SERVICE_UNAVAILABLE", Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Pocket errors.
var (
	ErrPocketNotFound       = &AppError{Code: "POCKET_NOT_FOUND", Message: "Pocket not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePocketName  = &AppError{Code: "DUPLICATE_POCKET_NAME", Message: "A pocket with this name already exists in this context", StatusCode: http.StatusConflict}
	ErrPocketInUse          = &AppError{Code: "POCKET_IN_USE", Message: "Pocket is referenced by existing transactions", StatusCode: http.StatusConflict}
	ErrGeneralPocket        = &AppError{Code: "GENERAL_POCKET_PROTECTED", Message: "The General pocket cannot be modified this way", StatusCode: http.StatusBadRequest}
	ErrGeneralPocketMissing = &AppError{Code: "GENERAL_POCKET_MISSING", Message: "The group has no General pocket", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse        = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
	ErrCategoryTypeMismatch = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Category type does not match the transaction type", StatusCode: http.StatusBadRequest}
)

// Transaction & money-movement errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInsufficientBalance    = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient pocket balance", StatusCode: http.StatusBadRequest}
	ErrSamePocketTransfer     = &AppError{Code: "SAME_POCKET_TRANSFER", Message: "Cannot transfer to the same pocket", StatusCode: http.StatusBadRequest}
	ErrCrossContextTransfer   = &AppError{Code: "CROSS_CONTEXT_TRANSFER", Message: "Cannot transfer between personal and group pockets", StatusCode: http.StatusBadRequest}
	ErrTransactionNotEditable = &AppError{Code: "TRANSACTION_NOT_EDITABLE", Message: "This transaction type cannot be edited", StatusCode: http.StatusBadRequest}
)

// Group & membership errors.
var (
	ErrGroupNotFound  = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrNotGroupMember = &AppError{Code: "NOT_GROUP_MEMBER", Message: "You are not a member of this group", StatusCode: http.StatusForbidden}
	ErrAdminRequired  = &AppError{Code: "ADMIN_REQUIRED", Message: "Only group admins may perform this action", StatusCode: http.StatusForbidden}
	ErrAlreadyMember  = &AppError{Code: "ALREADY_MEMBER", Message: "User is already a member of this group", StatusCode: http.StatusConflict}
	ErrMemberNotFound = &AppError{Code: "MEMBER_NOT_FOUND", Message: "User is not a member of this group", StatusCode: http.StatusNotFound}
	ErrCreatorRole    = &AppError{Code: "CREATOR_ROLE_PROTECTED", Message: "The group creator's role cannot be changed", StatusCode: http.StatusBadRequest}
	ErrLastAdmin      = &AppError{Code: "LAST_ADMIN", Message: "Cannot demote the only admin of the group", StatusCode: http.StatusBadRequest}
	ErrInvalidRole    = &AppError{Code: "INVALID_ROLE", Message: "Role must be admin or member", StatusCode: http.StatusBadRequest}
)
