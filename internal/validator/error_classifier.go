package validator

import (
	"errors"
	"strconv"
	"strings"
)

// ServiceError wraps a validation service error with classification
// metadata.
type ServiceError struct {
	// Service is the name of the validation service.
	Service string
	// StatusCode is the HTTP status code returned by the service.
	StatusCode int
	// Message is the error description from the service.
	Message string
	// Permanent indicates the error will not succeed on retry, e.g. a bad
	// API key or an exhausted plan.
	Permanent bool
}

func (e *ServiceError) Error() string {
	return e.Service + ": " + e.Message
}

// IsPermanent returns true if err is a ServiceError that will not go away on
// its own.
func IsPermanent(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Permanent
	}
	return false
}

// IsRateLimited returns true if the service rejected the call for exceeding
// its request rate.
func IsRateLimited(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == 429
	}
	return false
}

// ClassifyHTTPError creates a ServiceError from an HTTP status code and
// response body. It returns nil for 2xx codes.
func ClassifyHTTPError(service string, statusCode int, body string) *ServiceError {
	se := &ServiceError{
		Service:    service,
		StatusCode: statusCode,
		Message:    errorMessage(statusCode, body),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil

	case statusCode == 401, statusCode == 403:
		se.Permanent = true

	case statusCode == 422:
		// Quota exhausted on the current plan.
		se.Permanent = true

	case statusCode == 429:
		se.Permanent = false

	case statusCode >= 500:
		se.Permanent = containsPermanentServerIndicator(body)

	default:
		se.Permanent = statusCode >= 400 && statusCode < 500
	}

	return se
}

func errorMessage(statusCode int, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return "unexpected status " + strconv.Itoa(statusCode)
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return body
}

// containsPermanentServerIndicator checks if a 5xx response body points at a
// configuration problem rather than an outage.
func containsPermanentServerIndicator(body string) bool {
	lower := strings.ToLower(body)
	permanentPatterns := []string{
		"invalid api key",
		"authentication failed",
		"account suspended",
		"account disabled",
		"unauthorized",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
