package analytics

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/components"
	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/internal"
	"github.com/relaytics/analytics-go/internal/dispatch"
	"github.com/relaytics/analytics-go/internal/integrations"
	"github.com/relaytics/analytics-go/internal/payloadstore"
	"github.com/relaytics/analytics-go/internal/stats"
	"github.com/relaytics/analytics-go/subsystems"
)

// Version is the client library version.
const Version = internal.LibraryVersion

// CloudTargetKey is the integration key of the collection endpoint. Use it in a payload's
// integration options to keep a call on the device.
const CloudTargetKey = integrations.CloudTargetKey

var (
	// ErrInitializationTimeout is returned by MakeCustomClient if the settings source did not finish
	// starting within the specified time. The client is still usable, and will apply settings when
	// they arrive.
	ErrInitializationTimeout = errors.New("timeout encountered waiting for integration settings")

	// ErrInitializationFailed is returned by MakeCustomClient if the settings source failed
	// permanently. The client is still usable, but bundled integrations will never become ready.
	ErrInitializationFailed = errors.New("analytics client initialization failed")
)

// Client is the analytics client.
//
// Create it with MakeClient or MakeCustomClient. It is safe for concurrent use; normally an
// application creates one Client for the lifetime of the process.
type Client struct {
	writeKey       string
	manager        *integrations.Manager
	worker         *payloadstore.Worker
	scheduler      *dispatch.Scheduler
	transport      subsystems.Transport
	settingsSource subsystems.SettingsSource
	stats          *stats.Recorder
	baseContext    ldvalue.Value
	identity       identity
	identityLock   sync.RWMutex
	optedOut       atomic.Bool
	closed         atomic.Bool
	closeOnce      sync.Once
	flushOnClose   bool
	loggers        ldlog.Loggers
}

// MakeClient creates a new client instance with the default configuration, waiting up to 5 seconds
// for integration settings.
//
// For more about the return values, see MakeCustomClient.
func MakeClient(writeKey string) (*Client, error) {
	return MakeCustomClient(writeKey, Config{}, 5*time.Second)
}

// MakeCustomClient creates a new client instance with a custom configuration.
//
// The writeKey must not be empty. It identifies the source that payloads are attributed to.
//
// The client opens its queue, starts delivering any payloads that were stored by a previous run, and
// begins obtaining integration settings. If waitFor is greater than zero, MakeCustomClient blocks
// until settings have been applied or waitFor has elapsed; calls made before then are queued and
// passed to integrations once settings arrive.
//
// If the configuration is invalid, or the queue cannot be opened, it returns a nil *Client and an
// error. If settings could not be obtained in time, it returns a usable *Client together with
// ErrInitializationTimeout or ErrInitializationFailed.
func MakeCustomClient(writeKey string, config Config, waitFor time.Duration) (*Client, error) {
	clientContext, err := newClientContextFromConfig(writeKey, config)
	if err != nil {
		return nil, err
	}
	loggers := clientContext.GetLogging().Loggers
	loggers.Infof("Starting analytics client %s", Version)

	queueFactory := config.Queue
	if queueFactory == nil {
		queueFactory = components.Queue()
	}
	queueConfig, err := queueFactory.Build(clientContext)
	if err != nil {
		return nil, err
	}

	baseContext := makeBaseContext(config)
	recorder := stats.NewRecorder()
	manager, err := integrations.NewManager(
		config.Integrations,
		integration.AppContext{
			WriteKey:        writeKey,
			ApplicationInfo: config.ApplicationInfo,
			Context:         baseContext,
			Loggers:         loggers,
		},
		config.GrantedPermissions,
		recorder,
	)
	if err != nil {
		return nil, err
	}

	store, err := payloadstore.Open(queueConfig.DatabasePath, queueConfig.MaxQueueSize, loggers)
	if err != nil {
		return nil, err
	}
	worker := payloadstore.StartWorker(store, 0, recorder, loggers)

	transportFactory := config.Transport
	if transportFactory == nil {
		transportFactory = components.HTTPTransport()
	}
	transport, err := transportFactory.Build(clientContext)
	if err != nil {
		_ = worker.Close()
		return nil, err
	}

	settingsFactory := config.Settings
	if settingsFactory == nil {
		settingsFactory = components.PollingSettings()
	}
	settingsContext := clientContext
	settingsContext.SettingsSink = manager
	settingsSource, err := settingsFactory.Build(settingsContext)
	if err != nil {
		_ = transport.Close()
		_ = worker.Close()
		return nil, err
	}

	dispatcher := dispatch.NewDispatcher(worker, transport, dispatch.DispatcherConfig{
		MaxBatchSize:   queueConfig.MaxBatchSize,
		MaxBatchBytes:  queueConfig.MaxBatchBytes,
		LogPayloadData: clientContext.GetLogging().LogPayloadData,
		Loggers:        loggers,
	}, recorder)
	scheduler := dispatch.StartScheduler(dispatcher, dispatch.SchedulerConfig{
		FlushAt:       queueConfig.FlushAt,
		FlushInterval: queueConfig.FlushInterval,
		Loggers:       loggers,
	})

	client := &Client{
		writeKey:       writeKey,
		manager:        manager,
		worker:         worker,
		scheduler:      scheduler,
		transport:      transport,
		settingsSource: settingsSource,
		stats:          recorder,
		baseContext:    baseContext,
		identity:       newIdentity(),
		flushOnClose:   queueConfig.FlushOnClose,
		loggers:        loggers,
	}

	closeWhenReady := make(chan struct{})
	settingsSource.Start(closeWhenReady)
	if waitFor > 0 {
		loggers.Infof("Waiting up to %d milliseconds for integration settings...", waitFor/time.Millisecond)
		timeout := time.After(waitFor)
		select {
		case <-closeWhenReady:
			if !settingsSource.IsInitialized() {
				loggers.Warn("Analytics client was unable to obtain integration settings")
				return client, ErrInitializationFailed
			}
			loggers.Info("Initialized analytics client")
			return client, nil
		case <-timeout:
			loggers.Warn("Timeout encountered waiting for integration settings")
			go func() { <-closeWhenReady }() // Don't block the settings source when not waiting
			return client, ErrInitializationTimeout
		}
	}
	go func() { <-closeWhenReady }() // Don't block the settings source when not waiting
	return client, nil
}

// Flush tells the client to deliver all queued payloads, and tells every ready integration to send
// what it has buffered. It returns immediately; delivery happens in the background.
//
// Payloads are also delivered automatically, on an interval and whenever enough have been queued, so
// it is not necessary to call Flush except when the application is about to become inactive.
func (c *Client) Flush() {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return
	}
	if c.closed.Load() {
		return
	}
	c.scheduler.RequestFlush()
	c.manager.Flush()
}

// FlushAndWait is like Flush, but blocks until all queued payloads have been delivered, a delivery
// has failed, or the timeout has elapsed. It returns true only if delivery finished within the
// timeout.
func (c *Client) FlushAndWait(timeout time.Duration) bool {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return false
	}
	if c.closed.Load() {
		return false
	}
	c.manager.Flush()
	return c.scheduler.FlushAndWait(timeout)
}

// Reset forgets the current user: the user ID and traits are cleared, a new anonymous ID is
// generated, every ready integration is told to reset, and payloads that have not been delivered yet
// are discarded.
func (c *Client) Reset() {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return
	}
	if c.closed.Load() {
		return
	}
	c.identityLock.Lock()
	c.identity = newIdentity()
	c.identityLock.Unlock()
	c.manager.Reset()
	c.worker.Clear(func(r payloadstore.RemoveResult) {
		if r.Success && r.Removed > 0 {
			c.loggers.Debugf("Discarded %d undelivered payloads on reset", r.Removed)
		}
	})
}

// OptOut stops or resumes all recording. While the user is opted out, calls to Identify, Track,
// Screen, Group, and Alias have no effect. Integrations are told about every change.
func (c *Client) OptOut(optOut bool) {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return
	}
	if c.optedOut.Swap(optOut) != optOut {
		c.loggers.Infof("Analytics opt-out set to %t", optOut)
	}
	c.manager.ToggleOptOut(optOut)
}

// IsOptedOut returns true if OptOut(true) is in effect.
func (c *Client) IsOptedOut() bool {
	return c != nil && c.optedOut.Load()
}

// RefreshSettings asks the settings source to obtain integration settings again.
func (c *Client) RefreshSettings() {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return
	}
	if c.closed.Load() {
		return
	}
	c.settingsSource.Refresh()
}

// Initialized returns true if integration settings have been applied.
func (c *Client) Initialized() bool {
	return c != nil && c.manager.IsInitialized()
}

// OnActivityStart passes an activity lifecycle event to every initialized integration.
func (c *Client) OnActivityStart(activity integration.Activity) {
	if c.acceptingCalls() {
		c.manager.OnActivityStart(activity)
	}
}

// OnActivityResume passes an activity lifecycle event to every initialized integration.
func (c *Client) OnActivityResume(activity integration.Activity) {
	if c.acceptingCalls() {
		c.manager.OnActivityResume(activity)
	}
}

// OnActivityPause passes an activity lifecycle event to every initialized integration.
func (c *Client) OnActivityPause(activity integration.Activity) {
	if c.acceptingCalls() {
		c.manager.OnActivityPause(activity)
	}
}

// OnActivityStop passes an activity lifecycle event to every initialized integration.
func (c *Client) OnActivityStop(activity integration.Activity) {
	if c.acceptingCalls() {
		c.manager.OnActivityStop(activity)
	}
}

// Targets returns the status of every delivery target: first the collection endpoint, which is
// always ready, and then each bundled integration in registration order.
func (c *Client) Targets() []integration.Status {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return nil
	}
	return c.manager.Targets()
}

// Stats returns a snapshot of the client's delivery statistics.
func (c *Client) Stats() interfaces.StatsSnapshot {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return interfaces.StatsSnapshot{}
	}
	return c.stats.Snapshot(c.worker.Count())
}

// AnonymousID returns the identifier that is attached to every payload until Reset is called.
func (c *Client) AnonymousID() string {
	if c == nil {
		return ""
	}
	c.identityLock.RLock()
	defer c.identityLock.RUnlock()
	return c.identity.anonymousID
}

// SetAnonymousID replaces the anonymous identifier. An empty id is ignored.
func (c *Client) SetAnonymousID(id string) {
	if c == nil || id == "" {
		return
	}
	c.identityLock.Lock()
	c.identity.anonymousID = id
	c.identityLock.Unlock()
}

// Close shuts down the client. It stops accepting calls, stops the settings source, makes one last
// attempt to deliver queued payloads if the queue is configured to, and releases the queue and the
// transport. Payloads that were not delivered remain on the device for the next run.
//
// Calling Close more than once has no effect.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.loggers.Info("Closing analytics client")
		c.closed.Store(true)
		_ = c.settingsSource.Close()
		c.scheduler.Close(c.flushOnClose)
		_ = c.worker.Close()
		_ = c.transport.Close()
	})
	return nil
}

func (c *Client) acceptingCalls() bool {
	if c == nil {
		internal.LogErrorNilPointerMethod("Client")
		return false
	}
	return !c.closed.Load()
}

type identity struct {
	anonymousID string
	userID      string
	traits      ldvalue.Value
}

func newIdentity() identity {
	return identity{anonymousID: uuid.NewString()}
}
