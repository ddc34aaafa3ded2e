package components

import (
	"time"

	"github.com/relaytics/analytics-go/internal/endpoints"
	"github.com/relaytics/analytics-go/internal/settings"
	"github.com/relaytics/analytics-go/subsystems"
)

const (
	// DefaultPollInterval is the default value for PollingSettingsBuilder.PollInterval.
	DefaultPollInterval = settings.DefaultPollInterval
	// MinimumPollInterval is the minimum value for PollingSettingsBuilder.PollInterval.
	MinimumPollInterval = settings.MinimumPollInterval
	// DefaultCacheTTL is the default value for PollingSettingsBuilder.CacheTTL.
	DefaultCacheTTL = settings.DefaultCacheTTL
)

// PollingSettingsBuilder provides methods for configuring the polling settings source.
//
// See PollingSettings for usage.
type PollingSettingsBuilder struct {
	baseURI      string
	pollInterval time.Duration
	cacheTTL     time.Duration
}

// PollingSettings returns a configurable factory for fetching the project's integration settings from
// the settings service. This is the default settings source.
//
// The client requests the settings when it starts and then at every poll interval. HTTP caching allows
// it to avoid redundantly downloading the document if it has not changed.
//
//	config := analytics.Config{
//	    Settings: components.PollingSettings().PollInterval(30 * time.Minute),
//	}
func PollingSettings() *PollingSettingsBuilder {
	return &PollingSettingsBuilder{
		pollInterval: DefaultPollInterval,
		cacheTTL:     DefaultCacheTTL,
	}
}

// BaseURI sets a custom base URI for the settings service. This is equivalent to setting Settings in
// Config.ServiceEndpoints, and takes precedence over it.
func (b *PollingSettingsBuilder) BaseURI(baseURI string) *PollingSettingsBuilder {
	b.baseURI = baseURI
	return b
}

// PollInterval sets the interval at which the client polls for settings updates.
//
// The minimum value is MinimumPollInterval. Values less than this will be set to the minimum.
func (b *PollingSettingsBuilder) PollInterval(pollInterval time.Duration) *PollingSettingsBuilder {
	if pollInterval < MinimumPollInterval {
		b.pollInterval = MinimumPollInterval
	} else {
		b.pollInterval = pollInterval
	}
	return b
}

// Used in tests to skip parameter validation.
//
//nolint:unused // it is used in tests
func (b *PollingSettingsBuilder) forcePollInterval(pollInterval time.Duration) *PollingSettingsBuilder {
	b.pollInterval = pollInterval
	return b
}

// CacheTTL sets how long a fetched document is reused when the application asks for a refresh.
func (b *PollingSettingsBuilder) CacheTTL(ttl time.Duration) *PollingSettingsBuilder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	b.cacheTTL = ttl
	return b
}

// Build is called internally by the client.
func (b *PollingSettingsBuilder) Build(context subsystems.ClientContext) (subsystems.SettingsSource, error) {
	configuredBaseURI := endpoints.SelectBaseURI(
		context.GetServiceEndpoints(),
		endpoints.SettingsService,
		b.baseURI,
		context.GetLogging().Loggers,
	)
	return settings.NewPollingSource(context, settings.PollingConfig{
		BaseURI:      configuredBaseURI,
		PollInterval: b.pollInterval,
		CacheTTL:     b.cacheTTL,
	}), nil
}
