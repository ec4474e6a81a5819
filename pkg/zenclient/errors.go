package zenclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrEmptyResponse is returned when a 2xx response carries no payload.
var ErrEmptyResponse = errors.New("zenjournal: empty response")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("zenjournal: %d %s", e.StatusCode, msg)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("zenjournal: %d %s (%s)", e.StatusCode, msg, strings.Join(parts, "; "))
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }
func IsNotFound(err error) bool     { return StatusCode(err) == http.StatusNotFound }
