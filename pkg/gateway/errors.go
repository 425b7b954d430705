package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ServiceError is returned for every non-2xx response.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Message returns the human readable part of err: the service message for a
// ServiceError, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// newServiceError builds the error from a response body. The service
// reports failures as {"detail": "..."}; some proxies use "message" or
// "error" instead. Validation failures carry a list under "detail".
func newServiceError(status int, body []byte) *ServiceError {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = detailText(payload.Detail)
		if msg == "" {
			msg = payload.Message
		}
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
		if text := http.StatusText(status); text != "" {
			msg = fmt.Sprintf("%s (%d)", text, status)
		}
	}
	return &ServiceError{Status: status, Message: msg}
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		parts := make([]string, 0, len(list))
		for _, d := range list {
			if d.Msg != "" {
				parts = append(parts, d.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
