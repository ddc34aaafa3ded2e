//nolint:gochecknoglobals
package sharedtest

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

var testLogLevel = ldlog.None

// NewTestLoggers returns loggers for tests that do not inspect log output. Change testLogLevel to see
// the output while debugging.
func NewTestLoggers() ldlog.Loggers {
	ret := ldlog.NewDefaultLoggers()
	ret.SetMinLevel(testLogLevel)
	return ret
}
