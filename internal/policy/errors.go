package policy

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes per-request validation failures.
type Code string

const (
	// CodeInvalidKey indicates a request key missing its partition or sort part.
	CodeInvalidKey Code = "INVALID_KEY"

	// CodeActionNotPermitted indicates a non-empty bucket whose action the
	// policy does not grant at all.
	CodeActionNotPermitted Code = "ACTION_NOT_PERMITTED"

	// CodeFieldNotWhitelisted indicates a field absent from the action's whitelist.
	CodeFieldNotWhitelisted Code = "FIELD_NOT_WHITELISTED"

	// CodeFieldBlacklisted indicates a field present on the action's blacklist.
	CodeFieldBlacklisted Code = "FIELD_BLACKLISTED"

	// CodeMissingMandatoryField indicates a mandatory field absent from a
	// bucket that was used.
	CodeMissingMandatoryField Code = "MISSING_MANDATORY_FIELD"

	// CodeDuplicateField indicates the same field named in more than one
	// bucket of a single request.
	CodeDuplicateField Code = "DUPLICATE_FIELD"

	// CodeInvalidIncrementType indicates a non-numeric increment delta.
	CodeInvalidIncrementType Code = "INVALID_INCREMENT_TYPE"

	// CodeInvalidAppendType indicates a non-sequence append value.
	CodeInvalidAppendType Code = "INVALID_APPEND_TYPE"
)

// ValidationError is a per-request validation failure. It carries the
// failing field and action where one is identifiable.
type ValidationError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Action != "":
		return fmt.Sprintf("%s: %s (field=%s, action=%s)", e.Code, e.Message, e.Field, e.Action)
	case e.Action != "":
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.Action)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// HTTPStatus returns the status an HTTP surface should map this failure to.
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// ConfigError means the policy configuration itself is structurally
// invalid. This is a caller programming error, never subject to
// FailOnError.
type ConfigError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "policy configuration: " + e.Message
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsCode reports whether err is a ValidationError with the given code.
func IsCode(err error, code Code) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}
