package transport

import (
	"fmt"

	"github.com/relaytics/analytics-go/internal"
)

func httpErrorMessage(statusCode int, context string, recoverableMessage string) string {
	outcome := recoverableMessage
	if !internal.IsHTTPErrorRecoverable(statusCode) {
		outcome = "giving up"
	}
	return fmt.Sprintf("Received %s for %s - %s", internal.HTTPErrorDescription(statusCode), context, outcome)
}
