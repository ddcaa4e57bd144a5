package models

// ErrorResponse is the JSON body for every failed request. Fields carries
// per-field validation messages when the failure is a validation error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

func NewValidationErrorResponse(message string, fields map[string]string) ErrorResponse {
	return ErrorResponse{Error: message, Fields: fields}
}
