package transport

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"golang.org/x/exp/maps"

	"github.com/relaytics/analytics-go/internal"
	"github.com/relaytics/analytics-go/internal/endpoints"
	"github.com/relaytics/analytics-go/subsystems"
)

// DefaultRetryDelay is the time to wait before the one retry of a failed request.
const DefaultRetryDelay = time.Second

const (
	requestIDHeader  = "X-Request-ID"
	postErrorContext = "posting analytics batch"
)

// HTTPTransport is the default subsystems.Transport. It posts each batch to the import path of the
// collection endpoint, authenticating with the write key.
type HTTPTransport struct {
	httpClient *http.Client
	importURI  string
	writeKey   string
	headers    http.Header
	retryDelay time.Duration
	loggers    ldlog.Loggers
}

// Config holds the parameters of NewHTTPTransport.
type Config struct {
	// BaseURI is the base URI of the collection endpoint, without the import path.
	BaseURI string
	// RetryDelay is the time to wait before retrying a failed request. Zero means DefaultRetryDelay.
	RetryDelay time.Duration
}

// NewHTTPTransport creates an HTTPTransport using the client's HTTP configuration.
func NewHTTPTransport(context subsystems.ClientContext, config Config) *HTTPTransport {
	retryDelay := config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	httpConfig := context.GetHTTP()
	return &HTTPTransport{
		httpClient: httpConfig.CreateHTTPClient(),
		importURI:  endpoints.AddPath(config.BaseURI, endpoints.ImportRequestPath),
		writeKey:   context.GetWriteKey(),
		headers:    httpConfig.DefaultHeaders,
		retryDelay: retryDelay,
		loggers:    context.GetLogging().Loggers,
	}
}

// SendBatch posts data. A request that fails with a network error or a recoverable HTTP status is
// tried once more after the retry delay; both attempts carry the same request ID.
func (t *HTTPTransport) SendBatch(data []byte, payloadCount int) subsystems.TransportResult {
	if len(data) == 0 {
		return subsystems.TransportResult{Success: true}
	}
	requestID := uuid.NewString()
	t.loggers.Debugf("Posting %d payloads to %s", payloadCount, t.importURI)

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			t.loggers.Warnf("Will retry posting analytics batch after %s", t.retryDelay)
			time.Sleep(t.retryDelay)
		}

		req, reqErr := http.NewRequest(http.MethodPost, t.importURI, bytes.NewReader(data))
		if reqErr != nil {
			t.loggers.Errorf("Unexpected error while creating analytics request: %+v", reqErr)
			return subsystems.TransportResult{}
		}
		if t.headers != nil {
			req.Header = maps.Clone(t.headers)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(requestIDHeader, requestID)
		req.SetBasicAuth(t.writeKey, "")

		resp, respErr := t.httpClient.Do(req)
		if resp != nil && resp.Body != nil {
			_, _ = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
		}
		if respErr != nil {
			t.loggers.Warnf("Unexpected error while %s: %+v", postErrorContext, respErr)
			continue
		}
		if resp.StatusCode >= 300 {
			message := httpErrorMessage(resp.StatusCode, postErrorContext, "will retry")
			t.loggers.Warn(message)
			if !internal.IsHTTPErrorRecoverable(resp.StatusCode) {
				return subsystems.TransportResult{}
			}
			continue
		}
		return subsystems.TransportResult{Success: true}
	}
	return subsystems.TransportResult{}
}

//nolint:revive // no doc comment for standard method
func (t *HTTPTransport) Close() error {
	return nil
}

// ImportURI returns the URI that batches are posted to, for testing.
func (t *HTTPTransport) ImportURI() string {
	return t.importURI
}

// RetryDelay returns the configured retry delay, for testing.
func (t *HTTPTransport) RetryDelay() time.Duration {
	return t.retryDelay
}
