package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized indicates the request was rejected because the session
	// token is missing, invalid, or expired.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound indicates the addressed entity does not exist.
	ErrNotFound = errors.New("api: not found")
)

// ErrorSet is the field-to-messages validation feedback returned by failed
// write requests.
type ErrorSet map[string][]string

// Messages flattens the set into "field message" lines, sorted by field.
func (e ErrorSet) Messages() []string {
	if len(e) == 0 {
		return nil
	}
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	var out []string
	for _, field := range fields {
		for _, msg := range e[field] {
			out = append(out, field+" "+msg)
		}
	}
	return out
}

// ValidationError carries the server's field validation feedback for a
// rejected write.
type ValidationError struct {
	Set ErrorSet
}

func (e *ValidationError) Error() string {
	return "api: validation failed: " + strings.Join(e.Set.Messages(), "; ")
}

// Validation extracts the ErrorSet when err is a validation failure.
func Validation(err error) (ErrorSet, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Set, true
	}
	return nil, false
}

// Error is any other non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("api: unexpected status %d: %s", e.Status, e.Message)
}

func decodeError(status int, body []byte) error {
	switch status {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 422:
		var envelope struct {
			Errors ErrorSet `json:"errors"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
			return &ValidationError{Set: envelope.Errors}
		}
	}
	return &Error{Status: status, Message: strings.TrimSpace(string(body))}
}
