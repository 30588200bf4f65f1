package models

// Machine-readable error codes returned in the response envelope
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeEmailNotVerified     = "EMAIL_NOT_VERIFIED"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeRouteNotFound        = "ROUTE_NOT_FOUND"
	ErrCodeBookingNotFound      = "BOOKING_NOT_FOUND"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	ErrCodeLocationNotFound     = "LOCATION_NOT_FOUND"
	ErrCodeCancellationBlocked  = "CANCELLATION_NOT_ALLOWED"
	ErrCodeAlreadyPaid          = "ALREADY_PAID"
	ErrCodeDuplicateRoute       = "DUPLICATE_ROUTE"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodePaymentFailed        = "PAYMENT_FAILED"
	ErrCodeInvalidStateChange   = "INVALID_STATE_CHANGE"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeDuplicateEmail       = "EMAIL_ALREADY_REGISTERED"
	ErrCodeBookingNotUpdatable  = "BOOKING_NOT_UPDATABLE"
	ErrCodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	ErrCodeAlreadyVerified      = "ALREADY_VERIFIED"
)

// Pagination describes the page window of a list response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// APIResponse is the envelope every endpoint returns
type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// NewPagination builds pagination metadata from a total row count
func NewPagination(page, limit int, total int64) *Pagination {
	if limit <= 0 {
		limit = 10
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
