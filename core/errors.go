package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError tells why a single input field was rejected.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports user input rejected by a Validator.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

func (err *ValidationError) Error() string {
	return strings.Join(err.Messages(), "; ")
}

// Messages returns one "field: message" line per rejected field.
func (err *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(err.Fields))
	for _, fErr := range err.Fields {
		msgs = append(msgs, fErr.Field+": "+fErr.Message)
	}
	return msgs
}

// shutdown is raised when the data can no longer be trusted and the web server must stop.
type shutdown struct {
	message string
}

func NewShutdownError(format string, args ...interface{}) error {
	return &shutdown{message: fmt.Sprintf(format, args...)}
}

func (s *shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var sErr *shutdown
	return errors.As(err, &sErr)
}
