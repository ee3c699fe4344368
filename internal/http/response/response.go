// Package response holds the JSON bodies shared by the HTTP handlers.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

const (
	// StatusOK is the status of the health answer.
	StatusOK = "OK"
	// StatusError is the status of every error body.
	StatusError = "Error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status       string `json:"status" example:"Error"`
	Error        string `json:"error" example:"invalid request body"`
	TrialExpired bool   `json:"trialExpired,omitempty"`
}

// Message is a body carrying only a human-readable message.
type Message struct {
	Message string `json:"message"`
}

// Health is the body of the health check.
type Health struct {
	Status  string `json:"status" example:"OK"`
	Message string `json:"message"`
}

// Error returns an error body with msg.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// TrialExpired returns the body sent when the access gate is closed.
func TrialExpired(msg string) ErrorResponse {
	return ErrorResponse{
		Status:       StatusError,
		Error:        msg,
		TrialExpired: true,
	}
}

// ValidationError turns validator failures into one readable message.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "gtefield":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must not be less than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// Invalid answers a failed validation; errors other than
// validator.ValidationErrors collapse to a generic message.
func Invalid(err error) ErrorResponse {
	if errs, ok := err.(validator.ValidationErrors); ok {
		return ValidationError(errs)
	}
	return Error("invalid request")
}
