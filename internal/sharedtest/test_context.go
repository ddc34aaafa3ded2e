package sharedtest

import (
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/subsystems"
)

// NewSimpleTestContext returns a basic implementation of subsystems.ClientContext for use in test code.
func NewSimpleTestContext(writeKey string) subsystems.BasicClientContext {
	return NewTestContext(writeKey, nil, nil)
}

// NewTestContext returns a basic implementation of subsystems.ClientContext for use in test code.
func NewTestContext(
	writeKey string,
	optHTTPConfig *interfaces.HTTPConfiguration,
	optLoggingConfig *interfaces.LoggingConfiguration,
) subsystems.BasicClientContext {
	ret := subsystems.BasicClientContext{WriteKey: writeKey}
	if optHTTPConfig != nil {
		ret.HTTP = *optHTTPConfig
	}
	if optLoggingConfig != nil {
		ret.Logging = *optLoggingConfig
	} else {
		ret.Logging = TestLoggingConfig()
	}
	return ret
}

// TestLoggingConfig returns a LoggingConfiguration corresponding to NewTestLoggers().
func TestLoggingConfig() interfaces.LoggingConfiguration {
	return interfaces.LoggingConfiguration{Loggers: NewTestLoggers()}
}
