package errors

import "fmt"

// ErrorCode represents a vikunja-mcp error code.
type ErrorCode string

const (
	ErrParse             ErrorCode = "PARSE_ERROR"           // 400
	ErrValidation        ErrorCode = "VALIDATION_ERROR"      // 400
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"       // 400
	ErrLimitExceeded     ErrorCode = "LIMIT_EXCEEDED"        // 413
	ErrMemoryLimit       ErrorCode = "MEMORY_LIMIT_EXCEEDED" // 413
	ErrNotFound          ErrorCode = "NOT_FOUND"             // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS"   // 409
	ErrRemote            ErrorCode = "REMOTE_ERROR"          // 502
	ErrInternal          ErrorCode = "INTERNAL"              // 500
)

// Remote failure kinds, stored in Details["kind"] of a REMOTE_ERROR so
// callers can distinguish a timeout from an auth failure without parsing
// the message.
const (
	RemoteKindTimeout   = "timeout"
	RemoteKindAuth      = "auth"
	RemoteKindTransport = "transport"
	RemoteKindOpen      = "circuit_open"
)

// MCPError represents a structured error with code, status, and details.
type MCPError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewParse creates a 400 error for malformed filter syntax.
// pos is the byte offset of the offending token; near is the offending
// substring, so callers can render an actionable message.
func NewParse(pos int, near, msg string) *MCPError {
	return &MCPError{
		Code:    ErrParse,
		Status:  400,
		Message: fmt.Sprintf("%s at position %d near %q", msg, pos, near),
		Details: map[string]any{"position": pos, "near": near},
	}
}

// NewValidation creates a 400 error for a filter that parsed but failed
// schema validation (unknown field, operator/type mismatch, bad arity).
func NewValidation(pos int, near, msg string) *MCPError {
	return &MCPError{
		Code:    ErrValidation,
		Status:  400,
		Message: fmt.Sprintf("%s at position %d near %q", msg, pos, near),
		Details: map[string]any{"position": pos, "near": near},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MCPError {
	return &MCPError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewLimitExceeded creates a 413 error when an expression exceeds a
// configured ceiling. rule names the limit that was violated
// ("length", "depth", "conditions").
func NewLimitExceeded(rule string, limit, actual int) *MCPError {
	return &MCPError{
		Code:    ErrLimitExceeded,
		Status:  413,
		Message: fmt.Sprintf("filter %s %d exceeds limit %d", rule, actual, limit),
		Details: map[string]any{"rule": rule, "limit": limit, "actual": actual},
	}
}

// NewMemoryLimit creates a 413 error when the memory risk gate denies
// client-side evaluation.
func NewMemoryLimit(tier string, estimatedBytes int64) *MCPError {
	return &MCPError{
		Code:   ErrMemoryLimit,
		Status: 413,
		Message: fmt.Sprintf(
			"estimated result footprint %d bytes is tier %s; narrow the filter or raise the memory ceiling",
			estimatedBytes, tier),
		Details: map[string]any{"tier": tier, "estimated_bytes": estimatedBytes},
	}
}

// NewNotFound creates a 404 error for a saved filter that does not exist
// in the caller's session. Cross-session lookups report the same error as
// a genuinely missing id.
func NewNotFound(identifier string) *MCPError {
	return &MCPError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("saved filter not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNameAlreadyExists creates a 409 error for saved-filter name collisions
// within a session.
func NewNameAlreadyExists(name string) *MCPError {
	return &MCPError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("saved filter named %q already exists in this session", name),
		Details: map[string]any{"name": name},
	}
}

// NewRemote creates a 502 error for a remote API failure. kind is one of
// the RemoteKind constants. The message must never contain credentials.
func NewRemote(kind, msg string) *MCPError {
	return &MCPError{
		Code:    ErrRemote,
		Status:  502,
		Message: msg,
		Details: map[string]any{"kind": kind},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MCPError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MCPError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an MCPError with the given code.
func Is(err error, code ErrorCode) bool {
	if mErr, ok := err.(*MCPError); ok {
		return mErr.Code == code
	}
	return false
}

// RemoteKind extracts the remote failure kind from a REMOTE_ERROR, or ""
// for any other error.
func RemoteKind(err error) string {
	mErr, ok := err.(*MCPError)
	if !ok || mErr.Code != ErrRemote || mErr.Details == nil {
		return ""
	}
	kind, _ := mErr.Details["kind"].(string)
	return kind
}
