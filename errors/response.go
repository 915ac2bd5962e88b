package errors

import (
	"encoding/json"
	stderrors "errors"
)

// ErrorResponse is the JSON body a streamcall server sends for a failed
// call that has not produced any value yet.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the payload of an ErrorResponse.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse renders e for the wire. The cause is never included.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// ParseResponse reads an ErrorResponse body back. It reports false for
// bodies that are not one, such as plain-text status reasons.
func ParseResponse(body []byte) (ErrorBody, bool) {
	var r ErrorResponse
	if err := json.Unmarshal(body, &r); err != nil || r.Error.Code == "" {
		return ErrorBody{}, false
	}
	return r.Error, true
}

// AsAppError extracts an AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// Wrap returns err as an AppError; anything unrecognised becomes Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
