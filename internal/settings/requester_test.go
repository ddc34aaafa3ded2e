package settings

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/internal/sharedtest"

	th "github.com/launchdarkly/go-test-helpers/v3"
	"github.com/launchdarkly/go-test-helpers/v3/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsJSON = `{"plan":{"track":{}},"integrations":{"Mixpanel":{"token":"abc"},"Segment.io":{"apiKey":"k"}}}`

// etagHandler serves a settings document with an ETag, answering 304 when the client already has it.
func etagHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=0")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func TestRequesterRequest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, requestsCh := httphelpers.RecordingHandler(
			httphelpers.HandlerWithResponse(200, nil, []byte(settingsJSON)),
		)
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			r := newSettingsRequester(basicClientContext(nil), ts.URL)

			integrations, cached, err := r.Request()

			require.NoError(t, err)
			assert.False(t, cached)
			assert.Equal(t, ldvalue.String("abc"), integrations.GetByKey("Mixpanel").GetByKey("token"))
			assert.Equal(t, 2, integrations.Count())

			req := <-requestsCh
			assert.Equal(t, "/v1/projects/"+testWriteKey+"/settings", req.Request.URL.Path)
			assert.Equal(t, "GET", req.Request.Method)
		})
	})

	t.Run("document without integrations", func(t *testing.T) {
		handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"plan":{}}`))
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			r := newSettingsRequester(basicClientContext(nil), ts.URL)

			integrations, _, err := r.Request()

			require.NoError(t, err)
			assert.Equal(t, ldvalue.ObjectType, integrations.Type())
			assert.Equal(t, 0, integrations.Count())
		})
	})

	t.Run("HTTP error response", func(t *testing.T) {
		handler := httphelpers.HandlerWithStatus(500)
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			r := newSettingsRequester(basicClientContext(nil), ts.URL)

			integrations, cached, err := r.Request()

			assert.Error(t, err)
			if he, ok := err.(httpStatusError); assert.True(t, ok) {
				assert.Equal(t, 500, he.Code)
			}
			assert.False(t, cached)
			assert.True(t, integrations.IsNull())
		})
	})

	t.Run("network error", func(t *testing.T) {
		var closedServerURL string
		handler := httphelpers.HandlerWithResponse(200, nil, []byte(settingsJSON))
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			closedServerURL = ts.URL
		})
		r := newSettingsRequester(basicClientContext(nil), closedServerURL)

		integrations, cached, err := r.Request()

		assert.Error(t, err)
		assert.False(t, cached)
		assert.True(t, integrations.IsNull())
	})

	t.Run("malformed data", func(t *testing.T) {
		handler := httphelpers.HandlerWithResponse(200, nil, []byte("{"))
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			r := newSettingsRequester(basicClientContext(nil), ts.URL)

			_, cached, err := r.Request()

			require.Error(t, err)
			_, ok := err.(malformedJSONError)
			assert.True(t, ok)
			assert.False(t, cached)
		})
	})

	t.Run("integrations of wrong type", func(t *testing.T) {
		handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"integrations":[]}`))
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			r := newSettingsRequester(basicClientContext(nil), ts.URL)

			_, _, err := r.Request()

			require.Error(t, err)
			_, ok := err.(malformedJSONError)
			assert.True(t, ok)
		})
	})

	t.Run("malformed base URI", func(t *testing.T) {
		r := newSettingsRequester(basicClientContext(nil), "::::")

		_, cached, err := r.Request()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing protocol scheme")
		assert.False(t, cached)
	})

	t.Run("sends default headers", func(t *testing.T) {
		handler, requestsCh := httphelpers.RecordingHandler(
			httphelpers.HandlerWithResponse(200, nil, []byte(settingsJSON)),
		)
		httphelpers.WithServer(handler, func(ts *httptest.Server) {
			headers := make(http.Header)
			headers.Set("User-Agent", "analytics-go/test")
			context := sharedtest.NewTestContext(testWriteKey, &interfaces.HTTPConfiguration{DefaultHeaders: headers}, nil)
			r := newSettingsRequester(context, ts.URL)

			_, _, err := r.Request()
			require.NoError(t, err)

			req := <-requestsCh
			assert.Equal(t, "analytics-go/test", req.Request.Header.Get("User-Agent"))
		})
	})
}

func TestRequesterReportsUnchangedDocumentAsCached(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(etagHandler(settingsJSON))
	httphelpers.WithServer(handler, func(ts *httptest.Server) {
		r := newSettingsRequester(basicClientContext(nil), ts.URL)

		first, cached1, err := r.Request()
		require.NoError(t, err)
		assert.False(t, cached1)

		second, cached2, err := r.Request()
		require.NoError(t, err)
		assert.True(t, cached2)
		assert.Equal(t, first, second)

		<-requestsCh
		req := <-requestsCh
		assert.Equal(t, `"v1"`, req.Request.Header.Get("If-None-Match"))
	})
}

func TestPollingSourceDoesNotRedeliverWhenServerAnswersNotModified(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(etagHandler(settingsJSON))
	httphelpers.WithServer(handler, func(ts *httptest.Server) {
		sink := sharedtest.NewCapturingSettingsSink()
		p := NewPollingSource(basicClientContext(sink), PollingConfig{BaseURI: ts.URL, PollInterval: time.Millisecond * 20})
		defer p.Close()
		p.Start(make(chan struct{}))

		doc := th.RequireValue(t, sink.DocsCh(), time.Second)
		assert.Equal(t, ldvalue.String("abc"), doc.GetByKey("Mixpanel").GetByKey("token"))

		th.RequireValue(t, requestsCh, time.Second)
		th.RequireValue(t, requestsCh, time.Second)
		th.AssertNoMoreValues(t, sink.DocsCh(), time.Millisecond*50)
	})
}
