package shared

// DomainError is a business rule failure carrying a stable code that the
// HTTP layer maps to a status. errors.Is treats two domain errors with the
// same code as equal, so callers can match sentinels against specific
// messages.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConflict            = NewDomainError("CONFLICT", "Resource is in conflict with existing data")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another request")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrAlreadyArchived     = NewDomainError("ALREADY_ARCHIVED", "Client is already archived")
	// ErrDuplicateRequest is an Idempotency-Key replayed while the first
	// request is still in flight
	ErrDuplicateRequest = NewDomainError("DUPLICATE_REQUEST", "Request with this idempotency key was already processed")
)
