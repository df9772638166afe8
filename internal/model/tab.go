package model

import "time"

// FieldError is the validation outcome for a single form input.
type FieldError struct {
	HasError     bool   `json:"has_error"`
	ErrorMessage string `json:"error_message"`
}

// NoError is the zero FieldError.
var NoError = FieldError{}

// Fail returns a FieldError carrying msg.
func Fail(msg string) FieldError {
	return FieldError{HasError: true, ErrorMessage: msg}
}

// TabState is the committed state of one quote tab. Values are kept as
// the raw strings the user entered; validation never rewrites them.
type TabState struct {
	ID            string     `json:"id"`
	Interest      string     `json:"interest"`
	InterestError FieldError `json:"interest_error"`
	Acres         string     `json:"acres"`
	AcresError    FieldError `json:"acres_error"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
