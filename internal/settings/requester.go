package settings

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"

	"github.com/relaytics/analytics-go/internal/endpoints"
	"github.com/relaytics/analytics-go/subsystems"
)

// Requester fetches the settings document. It is an interface so that the polling source can be
// tested without an HTTP server.
type Requester interface {
	// Request returns the document's integration settings. cached is true if the server reported that
	// the document has not changed since the previous request.
	Request() (integrations ldvalue.Value, cached bool, err error)
	BaseURI() string
}

type settingsRequester struct {
	httpClient *http.Client
	baseURI    string
	uri        string
	headers    http.Header
	loggers    ldlog.Loggers
}

func newSettingsRequester(context subsystems.ClientContext, baseURI string) *settingsRequester {
	httpClient := context.GetHTTP().CreateHTTPClient()

	modifiedClient := *httpClient
	modifiedClient.Transport = &httpcache.Transport{
		Cache:               httpcache.NewMemoryCache(),
		MarkCachedResponses: true,
		Transport:           httpClient.Transport,
	}

	return &settingsRequester{
		httpClient: &modifiedClient,
		baseURI:    baseURI,
		uri:        endpoints.AddPath(baseURI, endpoints.SettingsPath(context.GetWriteKey())),
		headers:    context.GetHTTP().DefaultHeaders,
		loggers:    context.GetLogging().Loggers,
	}
}

func (r *settingsRequester) BaseURI() string {
	return r.baseURI
}

func (r *settingsRequester) Request() (ldvalue.Value, bool, error) {
	if r.loggers.IsDebugEnabled() {
		r.loggers.Debug("Requesting integration settings")
	}

	body, cached, err := r.makeRequest()
	if err != nil {
		return ldvalue.Null(), false, err
	}

	integrations, err := parseSettingsDocument(body)
	if err != nil {
		return ldvalue.Null(), false, malformedJSONError{err}
	}
	return integrations, cached, nil
}

func (r *settingsRequester) makeRequest() ([]byte, bool, error) {
	req, reqErr := http.NewRequest(http.MethodGet, r.uri, nil)
	if reqErr != nil {
		reqErr = fmt.Errorf(
			"unable to create a settings request; this is not a network problem, most likely a bad base URI: %w",
			reqErr,
		)
		return nil, false, reqErr
	}
	if r.headers != nil {
		req.Header = maps.Clone(r.headers)
	}

	res, resErr := r.httpClient.Do(req)
	if resErr != nil {
		return nil, false, resErr
	}

	defer func() {
		_, _ = io.ReadAll(res.Body)
		_ = res.Body.Close()
	}()

	if err := checkForHTTPError(res.StatusCode, r.uri); err != nil {
		return nil, false, err
	}

	cached := res.Header.Get(httpcache.XFromCache) != ""

	body, ioErr := io.ReadAll(res.Body)
	if ioErr != nil {
		return nil, false, ioErr
	}
	return body, cached, nil
}

// parseSettingsDocument returns the "integrations" object of a settings document. A document with no
// integrations has an empty object.
func parseSettingsDocument(body []byte) (ldvalue.Value, error) {
	integrations := ldvalue.ObjectBuild().Build()
	r := jreader.NewReader(body)
	for obj := r.Object(); obj.Next(); {
		if string(obj.Name()) != "integrations" {
			r.SkipValue()
			continue
		}
		var v ldvalue.Value
		v.ReadFromJSONReader(&r)
		if v.IsNull() {
			continue
		}
		if v.Type() != ldvalue.ObjectType {
			return ldvalue.Null(), errors.New(`"integrations" must be an object`)
		}
		integrations = v
	}
	if err := r.Error(); err != nil {
		return ldvalue.Null(), err
	}
	return integrations, nil
}
