package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tukcommunity/backend/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeNotAuthenticated = httpx.CodeNotAuthenticated
	ErrorCodeTokenNotValid    = httpx.CodeTokenNotValid
	ErrorCodePermissionDenied = httpx.CodePermissionDenied
	ErrorCodeNoActiveAccount  = "no_active_account"
	ErrorCodeParseError       = "parse_error"
	ErrorCodeServerError      = "server_error"
)

// ============================================================================
// APIError - {"detail","code"} error bodies
// ============================================================================

// APIError is the error body returned for authentication, authorisation and
// server failures. It is used by the server to write responses and by the
// client to represent them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Detail is a human readable message, usually Korean.
	Detail string `json:"detail"`

	// Code is a stable machine readable code (e.g. "token_not_valid").
	Code string `json:"code"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Detail)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	// ErrNotAuthenticated is returned when a protected endpoint is called
	// without credentials.
	ErrNotAuthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     httpx.DetailNotAuthenticated,
		Code:       ErrorCodeNotAuthenticated,
	}

	// ErrTokenNotValid is returned for malformed, expired, revoked or
	// wrong-type tokens.
	ErrTokenNotValid = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     httpx.DetailTokenNotValid,
		Code:       ErrorCodeTokenNotValid,
	}

	// ErrNoActiveAccount is returned by login for any credential mismatch.
	// It does not reveal whether the email exists.
	ErrNoActiveAccount = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "지정된 자격 증명에 해당하는 활성화된 사용자를 찾을 수 없습니다",
		Code:       ErrorCodeNoActiveAccount,
	}

	// ErrPermissionDenied is returned when the caller lacks the authority.
	ErrPermissionDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Detail:     httpx.DetailPermissionDenied,
		Code:       ErrorCodePermissionDenied,
	}

	// ErrParse is returned when the request body is not valid JSON.
	ErrParse = &APIError{
		StatusCode: http.StatusBadRequest,
		Detail:     "JSON parse error",
		Code:       ErrorCodeParseError,
	}

	// ErrServerError is returned when something unexpected failed.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Detail:     "server error",
		Code:       ErrorCodeServerError,
	}
)

// ============================================================================
// ValidationErrors - field level 400 bodies
// ============================================================================

// ValidationErrors maps a request field to its error messages, e.g.
// {"email":["이미 가입된 이메일입니다."]}.
type ValidationErrors map[string][]string

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one error.
func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}

// WriteError writes the field errors as a 400 response.
func (v ValidationErrors) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, map[string][]string(v))
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into *APIError or
// ValidationErrors.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if resp.StatusCode == http.StatusBadRequest {
		var fields map[string][]string
		if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
			return ValidationErrors(fields)
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Detail:     fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
