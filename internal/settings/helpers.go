package settings

import (
	"fmt"
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/internal"
)

// httpStatusError is returned by the requester for a non-2xx response.
type httpStatusError struct {
	Message string
	Code    int
}

func (e httpStatusError) Error() string {
	return e.Message
}

// malformedJSONError is returned by the requester when the response is not a valid settings document.
type malformedJSONError struct {
	innerError error
}

func (e malformedJSONError) Error() string {
	return e.innerError.Error()
}

func (e malformedJSONError) Unwrap() error {
	return e.innerError
}

// logRequestError logs a failed poll and returns false if polling should stop. statusCode is zero
// for a network or parsing failure, which is always retried.
func logRequestError(loggers ldlog.Loggers, description string, statusCode int) bool {
	if statusCode > 0 && !internal.IsHTTPErrorRecoverable(statusCode) {
		loggers.Errorf("Error %s (giving up permanently): %s", pollingErrorContext, description)
		return false
	}
	loggers.Warnf("Error %s (%s): %s", pollingErrorContext, pollingWillRetryMessage, description)
	return true
}

func checkForHTTPError(statusCode int, url string) error {
	var hint string
	switch {
	case statusCode/100 == 2:
		return nil
	case statusCode == http.StatusUnauthorized:
		hint = "invalid write key"
	case statusCode == http.StatusNotFound:
		hint = "no settings exist for this write key"
	default:
		hint = "unexpected response"
	}
	return httpStatusError{
		Message: fmt.Sprintf("%s: status %d from %s", hint, statusCode, url),
		Code:    statusCode,
	}
}
