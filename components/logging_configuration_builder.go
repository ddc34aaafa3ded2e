package components

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/subsystems"
)

// LoggingConfigurationBuilder contains methods for configuring the client's logging behavior.
//
// If you want to set non-default values for any of these properties, create a builder with
// components.Logging(), change its properties with the LoggingConfigurationBuilder methods, and
// store it in Config.Logging:
//
//	config := analytics.Config{
//	    Logging: components.Logging().MinLevel(ldlog.Warn),
//	}
type LoggingConfigurationBuilder struct {
	config interfaces.LoggingConfiguration
}

// Logging returns a configuration builder for the client's logging configuration.
//
// The default configuration has logging enabled at Info level, writing to the standard logger.
func Logging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{
		config: interfaces.LoggingConfiguration{Loggers: ldlog.NewDefaultLoggers()},
	}
}

// LogPayloadData sets whether the contents of batches can be written to the debug log. By default
// they are not, since payloads may contain personal information.
func (b *LoggingConfigurationBuilder) LogPayloadData(logPayloadData bool) *LoggingConfigurationBuilder {
	b.config.LogPayloadData = logPayloadData
	return b
}

// Loggers specifies an instance of ldlog.Loggers to use for logging. The ldlog package contains
// methods for customizing the destination and level filtering of log output.
func (b *LoggingConfigurationBuilder) Loggers(loggers ldlog.Loggers) *LoggingConfigurationBuilder {
	b.config.Loggers = loggers
	return b
}

// MinLevel specifies the minimum level for log output, where ldlog.Debug is the lowest and ldlog.Error
// is the highest. Log messages at a level lower than this will be suppressed. The default is
// ldlog.Info.
//
// This is equivalent to creating an ldlog.Loggers instance, calling SetMinLevel() on it, and then
// passing it to LoggingConfigurationBuilder.Loggers().
func (b *LoggingConfigurationBuilder) MinLevel(level ldlog.LogLevel) *LoggingConfigurationBuilder {
	b.config.Loggers.SetMinLevel(level)
	return b
}

// Build is called internally by the client.
func (b *LoggingConfigurationBuilder) Build(
	subsystems.ClientContext,
) (interfaces.LoggingConfiguration, error) {
	return b.config, nil
}

// NoLogging returns a configuration object that disables logging.
//
//	config := analytics.Config{
//	    Logging: components.NoLogging(),
//	}
func NoLogging() subsystems.ComponentConfigurer[interfaces.LoggingConfiguration] {
	return noLoggingConfigurationFactory{}
}

type noLoggingConfigurationFactory struct{}

func (f noLoggingConfigurationFactory) Build(
	subsystems.ClientContext,
) (interfaces.LoggingConfiguration, error) {
	return interfaces.LoggingConfiguration{Loggers: ldlog.NewDisabledLoggers()}, nil
}
