// pkg/models/api.go
package models

// ValidationErrorResponse is the 422 body: one message per rejected field.
type ValidationErrorResponse struct {
	Message string            `json:"message" example:"Validation failed"`
	Errors  map[string]string `json:"errors"`
}

// ErrorResponse is the generic error body (401/403/404/409/500).
type ErrorResponse struct {
	Error   bool   `json:"error" example:"true"`
	Message string `json:"message" example:"Forbidden"`
	Code    string `json:"code,omitempty" example:"FORBIDDEN"`
}
