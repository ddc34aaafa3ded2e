package components

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/internal"
	"github.com/relaytics/analytics-go/subsystems"
)

// DefaultConnectTimeout is the HTTP connection timeout that is used if HTTPConfigurationBuilder.ConnectTimeout
// is not set.
const DefaultConnectTimeout = internal.DefaultConnectTimeout

// HTTPConfigurationBuilder contains methods for configuring the client's networking behavior.
//
// If you want to set non-default values for any of these properties, create a builder with
// components.HTTPConfiguration(), change its properties with the HTTPConfigurationBuilder methods,
// and store it in Config.HTTP:
//
//	config := analytics.Config{
//	    HTTP: components.HTTPConfiguration().ConnectTimeout(3 * time.Second),
//	}
type HTTPConfigurationBuilder struct {
	connectTimeout    time.Duration
	httpClientFactory func() *http.Client
	userAgent         string
	headers           http.Header
	ntlmProxy         *ntlmProxyConfig
}

type ntlmProxyConfig struct {
	proxyURL string
	username string
	password string
	domain   string
}

// HTTPConfiguration returns a configuration builder for the client's HTTP configuration.
func HTTPConfiguration() *HTTPConfigurationBuilder {
	return &HTTPConfigurationBuilder{
		connectTimeout: DefaultConnectTimeout,
	}
}

// ConnectTimeout sets the connection timeout.
//
// This is the maximum amount of time to wait for each individual connection attempt to a remote
// service before determining that that attempt has failed. It is also the overall timeout of a
// request. Zero or negative values are changed to DefaultConnectTimeout.
func (b *HTTPConfigurationBuilder) ConnectTimeout(connectTimeout time.Duration) *HTTPConfigurationBuilder {
	if connectTimeout <= 0 {
		b.connectTimeout = DefaultConnectTimeout
	} else {
		b.connectTimeout = connectTimeout
	}
	return b
}

// HTTPClientFactory specifies a function for creating each HTTP client instance that is used by the
// client.
//
// If you use this option, it overrides ConnectTimeout; the client is used as-is.
func (b *HTTPConfigurationBuilder) HTTPClientFactory(httpClientFactory func() *http.Client) *HTTPConfigurationBuilder {
	b.httpClientFactory = httpClientFactory
	return b
}

// Header specifies a custom HTTP header that should be added to all requests. Repeated calls to Header
// with the same key will overwrite previous entries.
func (b *HTTPConfigurationBuilder) Header(key string, value string) *HTTPConfigurationBuilder {
	if b.headers == nil {
		b.headers = make(http.Header)
	}
	b.headers.Set(key, value)
	return b
}

// UserAgent specifies an additional User-Agent header value to send with HTTP requests. It is appended
// to the library's own User-Agent.
func (b *HTTPConfigurationBuilder) UserAgent(userAgent string) *HTTPConfigurationBuilder {
	b.userAgent = userAgent
	return b
}

// NTLMProxy routes all requests through an HTTP proxy that requires NTLM authentication. The domain
// may be empty. Build fails if the proxy URL is invalid or the username or password is empty.
//
// This option is ignored if HTTPClientFactory is also set.
func (b *HTTPConfigurationBuilder) NTLMProxy(proxyURL, username, password, domain string) *HTTPConfigurationBuilder {
	b.ntlmProxy = &ntlmProxyConfig{proxyURL: proxyURL, username: username, password: password, domain: domain}
	return b
}

// Build is called internally by the client.
func (b *HTTPConfigurationBuilder) Build(
	subsystems.ClientContext,
) (interfaces.HTTPConfiguration, error) {
	headers := make(http.Header)
	for k, v := range b.headers {
		headers[k] = v
	}
	userAgent := internal.UserAgent
	if b.userAgent != "" {
		userAgent = strings.TrimSpace(userAgent + " " + b.userAgent)
	}
	headers.Set("User-Agent", userAgent)

	clientFactory := b.httpClientFactory
	if clientFactory == nil {
		connectTimeout := b.connectTimeout
		if b.ntlmProxy != nil {
			proxy := *b.ntlmProxy
			proxyURL, err := proxy.validate()
			if err != nil {
				return interfaces.HTTPConfiguration{}, err
			}
			clientFactory = func() *http.Client {
				return internal.NewNTLMProxyHTTPClient(connectTimeout, *proxyURL, proxy.username, proxy.password,
					proxy.domain)
			}
		} else {
			clientFactory = func() *http.Client {
				return internal.NewHTTPClient(connectTimeout)
			}
		}
	}

	return interfaces.HTTPConfiguration{
		DefaultHeaders:   headers,
		CreateHTTPClient: clientFactory,
	}, nil
}

func (p ntlmProxyConfig) validate() (*url.URL, error) {
	if p.proxyURL == "" || p.username == "" || p.password == "" {
		return nil, errors.New("NTLM proxy URL, username, and password are required")
	}
	parsed, err := url.Parse(p.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid NTLM proxy URL: %w", err)
	}
	return parsed, nil
}
