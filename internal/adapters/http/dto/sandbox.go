package dto

// EchoResponse reflects a request back to the caller.
type EchoResponse struct {
	Method        string         `json:"method"`
	Path          string         `json:"path"`
	Body          map[string]any `json:"body,omitempty"`
	RequestID     string         `json:"requestId,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
}

// MeResponse describes the caller identified by the bearer token.
type MeResponse struct {
	Subject string `json:"subject"`
}

// CreateUserRequest is the body of POST /api/v1/users. Keys are snake_case
// on the wire.
type CreateUserRequest struct {
	UserName string `json:"user_name" validate:"required,notempty,min=2,max=64"`
	Email    string `json:"email"     validate:"omitempty,email"`
	IsActive bool   `json:"is_active"`
}

// UserResponse is the created user.
type UserResponse struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `json:"is_active"`
}
