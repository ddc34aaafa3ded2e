package interfaces

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// LoggingConfiguration encapsulates the client's general logging configuration.
//
// See components.LoggingConfigurationBuilder for more details on these properties.
type LoggingConfiguration struct {
	// Loggers is a configured ldlog.Loggers instance for general logging.
	Loggers ldlog.Loggers

	// LogPayloadData is true if the contents of payloads and batches may be included in debug logging.
	LogPayloadData bool
}
