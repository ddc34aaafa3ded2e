package settings

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/relaytics/analytics-go/internal"
	"github.com/relaytics/analytics-go/subsystems"
)

const (
	pollingErrorContext     = "on settings request"
	pollingWillRetryMessage = "will retry at next scheduled poll interval"

	documentCacheKey = "integrations"
)

// Default and minimum timing of the polling source.
const (
	DefaultPollInterval = time.Hour
	MinimumPollInterval = time.Minute
	DefaultCacheTTL     = 24 * time.Hour
)

// PollingConfig describes the configuration for a polling settings source. It is exported so that
// it can be used in the PollingSettingsBuilder.
type PollingConfig struct {
	BaseURI      string
	PollInterval time.Duration
	CacheTTL     time.Duration
}

// PollingSource is the internal implementation of the polling settings source.
//
// Settings are fetched once at start and then at every poll interval; a document that the server
// reports as unchanged is not delivered again. Refresh delivers the most recently fetched document
// if it is younger than the cache TTL, and otherwise fetches a new one.
type PollingSource struct {
	sink               subsystems.SettingsSink
	requester          Requester
	pollInterval       time.Duration
	documents          *cache.Cache
	requests           singleflight.Group
	loggers            ldlog.Loggers
	setInitializedOnce sync.Once
	isInitialized      atomic.Bool
	quit               chan struct{}
	closeOnce          sync.Once
}

// NewPollingSource creates the internal implementation of the polling settings source.
func NewPollingSource(context subsystems.ClientContext, cfg PollingConfig) *PollingSource {
	return newPollingSource(context, newSettingsRequester(context, cfg.BaseURI), cfg.PollInterval, cfg.CacheTTL)
}

func newPollingSource(
	context subsystems.ClientContext,
	requester Requester,
	pollInterval time.Duration,
	cacheTTL time.Duration,
) *PollingSource {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &PollingSource{
		sink:         context.GetSettingsSink(),
		requester:    requester,
		pollInterval: pollInterval,
		documents:    cache.New(cacheTTL, cacheTTL),
		loggers:      context.GetLogging().Loggers,
		quit:         make(chan struct{}),
	}
}

//nolint:revive // no doc comment for standard method
func (ps *PollingSource) Start(closeWhenReady chan<- struct{}) {
	ps.loggers.Infof("Starting settings polling with interval: %+v", ps.pollInterval)

	ticker := newTickerWithInitialTick(ps.pollInterval, ps.quit)

	go func() {
		defer ticker.Stop()

		var readyOnce sync.Once
		notifyReady := func() {
			readyOnce.Do(func() {
				close(closeWhenReady)
			})
		}
		// Ensure we stop waiting for initialization if we exit, even if initialization fails
		defer notifyReady()

		for {
			select {
			case <-ps.quit:
				return
			case <-ticker.C:
				if err := ps.poll(); err != nil {
					if hse, ok := err.(httpStatusError); ok {
						if !logRequestError(ps.loggers, internal.HTTPErrorDescription(hse.Code), hse.Code) {
							notifyReady()
							return
						}
					} else {
						logRequestError(ps.loggers, err.Error(), 0)
					}
					continue
				}
				ps.setInitializedOnce.Do(func() {
					ps.isInitialized.Store(true)
					ps.loggers.Info("First settings request successful")
					notifyReady()
				})
			}
		}
	}()
}

func (ps *PollingSource) poll() error {
	integrations, cached, err := ps.fetch()
	if err != nil {
		return err
	}
	// Settings are only delivered if the request wasn't cached
	if !cached {
		ps.sink.UpdateSettings(integrations)
	}
	return nil
}

// fetch performs one request, sharing the result with any concurrent caller.
func (ps *PollingSource) fetch() (ldvalue.Value, bool, error) {
	type fetchResult struct {
		integrations ldvalue.Value
		cached       bool
	}
	v, err, _ := ps.requests.Do(documentCacheKey, func() (interface{}, error) {
		integrations, cached, err := ps.requester.Request()
		if err != nil {
			return nil, err
		}
		ps.documents.SetDefault(documentCacheKey, integrations)
		return fetchResult{integrations: integrations, cached: cached}, nil
	})
	if err != nil {
		return ldvalue.Null(), false, err
	}
	result := v.(fetchResult)
	return result.integrations, result.cached, nil
}

// Refresh delivers the cached document, or fetches one if the cache has expired. It does not block.
func (ps *PollingSource) Refresh() {
	select {
	case <-ps.quit:
		return
	default:
	}
	if v, ok := ps.documents.Get(documentCacheKey); ok {
		ps.loggers.Debug("Using cached integration settings")
		ps.sink.UpdateSettings(v.(ldvalue.Value))
		return
	}
	go func() {
		integrations, _, err := ps.fetch()
		if err != nil {
			ps.loggers.Warnf("Error refreshing integration settings: %s", err)
			return
		}
		ps.sink.UpdateSettings(integrations)
	}()
}

//nolint:revive // no doc comment for standard method
func (ps *PollingSource) Close() error {
	ps.closeOnce.Do(func() {
		close(ps.quit)
	})
	return nil
}

//nolint:revive // no doc comment for standard method
func (ps *PollingSource) IsInitialized() bool {
	return ps.isInitialized.Load()
}

// GetBaseURI returns the configured settings base URI, for testing.
func (ps *PollingSource) GetBaseURI() string {
	return ps.requester.BaseURI()
}

// GetPollInterval returns the configured polling interval, for testing.
func (ps *PollingSource) GetPollInterval() time.Duration {
	return ps.pollInterval
}

type tickerWithInitialTick struct {
	*time.Ticker
	C <-chan time.Time
}

func newTickerWithInitialTick(interval time.Duration, quit <-chan struct{}) *tickerWithInitialTick {
	c := make(chan time.Time)
	ticker := time.NewTicker(interval)
	t := &tickerWithInitialTick{
		C:      c,
		Ticker: ticker,
	}
	go func() {
		next := time.Now() // Ensure we do an initial poll immediately
		for {
			select {
			case c <- next:
			case <-quit:
				return
			}
			select {
			case next = <-ticker.C:
			case <-quit:
				return
			}
		}
	}()
	return t
}
