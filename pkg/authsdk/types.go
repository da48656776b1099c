package authsdk

import "time"

// ============================================================================
// Signup
// ============================================================================

// SignupRequest is the body of POST /api/accounts/signup/.
type SignupRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	StudentNum int64   `json:"student_num"`
	Department string  `json:"department"`
	Nickname   *string `json:"nickname,omitempty"`
}

// SignupUser is the safe projection of a freshly created user.
type SignupUser struct {
	Email      string `json:"email"`
	StudentNum int64  `json:"student_num"`
	Nickname   string `json:"nickname"`
}

// SignupResponse is returned with 201 Created.
type SignupResponse struct {
	Message string     `json:"message"`
	User    SignupUser `json:"user"`
}

// ============================================================================
// Tokens
// ============================================================================

// LoginRequest is the body of POST /api/accounts/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPairResponse carries a freshly issued access and refresh token.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest is the body of POST /api/accounts/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse always carries a new access token. Refresh is only set
// when the server rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// LogoutRequest is the body of POST /api/accounts/logout/.
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// MessageResponse is a plain {"message": "..."} body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// System
// ============================================================================

// HealthResponse is returned by GET / and GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Service   string `json:"service"`
}

// ============================================================================
// Roles
// ============================================================================

// RoleInfo describes one row of the Role table.
type RoleInfo struct {
	RoleID    int64     `json:"role_id"`
	Authority int       `json:"authority"`
	CreatedAt time.Time `json:"create_at"`
}

// ListRolesResponse is returned by GET /api/accounts/roles/.
type ListRolesResponse struct {
	Roles []RoleInfo `json:"roles"`
}
