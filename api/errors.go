package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoToken         = errors.New("no session token, log in first")
	ErrUserNotFound    = errors.New("user does not exist")
	ErrBadCredentials  = errors.New("wrong password")
	ErrSessionExpired  = errors.New("session expired, log in again")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// Error is a failed API call. Fields holds per-field messages for
// validation failures, keyed by JSON field name.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
	kind    error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.kind != nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("api: http status %d", e.Status)
}

// Unwrap exposes the sentinel for the failure class, if any.
func (e *Error) Unwrap() error {
	return e.kind
}

// newError builds an Error from a non-2xx response. A 400 with a flat JSON
// object is a field validation failure; otherwise the "error" or "message"
// member is used, then the sentinel, then fallback.
func newError(status int, body []byte, kind error, fallback string) *Error {
	e := &Error{Status: status, kind: kind}

	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil && obj != nil {
		if msg, ok := obj["error"].(string); ok && msg != "" {
			e.Message = msg
		} else if status == http.StatusBadRequest && len(obj) > 0 {
			e.Fields = make(map[string]string, len(obj))
			for k, v := range obj {
				e.Fields[k] = fmt.Sprint(v)
			}
			e.Message = joinFieldErrors(e.Fields)
		} else if msg, ok := obj["message"].(string); ok && msg != "" {
			e.Message = msg
		}
	}
	if e.Message == "" && kind == nil {
		e.Message = fallback
	}
	return e
}

// joinFieldErrors renders field messages as one sentence per line, in
// field name order.
func joinFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fields[k]
	}
	return strings.Join(msgs, ".\n") + "."
}
