package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appErrors "planar/internal/errors"
)

// HTTPError is a non-2xx response. Detail carries the server's "detail" or
// "error" message when the body has one.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// DecodeError reports a response body that does not match the endpoint's
// schema. Field is a dotted path to the offending value when known.
type DecodeError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %s: %v", e.Endpoint, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show in a notification for err. Server
// details win over generic transport text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return fallback
}

func classifyStatus(method, path string, status int, body []byte) error {
	httpErr := HTTPError{Method: method, Path: path, Status: status, Detail: extractDetail(body)}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.New(appErrors.CodeUnauthorized, httpErr.Error(), httpErr)
	case http.StatusNotFound:
		return appErrors.New(appErrors.CodeNotFound, httpErr.Error(), httpErr)
	default:
		return appErrors.New(appErrors.CodeNetwork, httpErr.Error(), httpErr)
	}
}

func transportError(method, path string, err error) error {
	return appErrors.New(appErrors.CodeNetwork, fmt.Sprintf("%s %s: %v", method, path, err), err)
}

func decodeError(endpoint, field string, err error) error {
	de := DecodeError{Endpoint: endpoint, Field: field, Err: err}
	return appErrors.New(appErrors.CodeDecode, de.Error(), de)
}

func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if d := strings.TrimSpace(payload.Detail); d != "" {
		return d
	}
	return strings.TrimSpace(payload.Error)
}

func validationError(msg string) error {
	return appErrors.New(appErrors.CodeValidation, msg, nil)
}
