package model

import "strings"

// FieldError describes one failed check on a request field.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// ValidationError collects the field errors of a rejected request.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError builds a single-field ValidationError for a body parameter.
func NewValidationError(param, msg string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Msg: msg, Param: param, Location: "body"}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Param + ": " + fe.Msg
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
