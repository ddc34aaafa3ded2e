package internal

import (
	"fmt"
	"net/http"
)

// IsHTTPErrorRecoverable returns false for a 4xx status that will not change if the request is
// repeated. 400, 408 and 429 are treated as transient, as are all 5xx statuses.
func IsHTTPErrorRecoverable(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return true
	}
	switch statusCode {
	case http.StatusBadRequest, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return false
}

// HTTPErrorDescription describes an error status for a log message.
func HTTPErrorDescription(statusCode int) string {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return fmt.Sprintf("HTTP error %d (invalid write key)", statusCode)
	}
	return fmt.Sprintf("HTTP error %d", statusCode)
}
