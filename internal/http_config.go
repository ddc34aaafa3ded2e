package internal

import (
	"net"
	"net/http"
	"net/url"
	"time"

	ntlm "github.com/launchdarkly/go-ntlm-proxy-auth"
)

// DefaultConnectTimeout is the HTTP connection timeout used when none is configured.
const DefaultConnectTimeout = 3 * time.Second

// NewHTTPClient creates an HTTP client whose connection attempts and total request time are bounded
// by the timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newHTTPTransport(timeout),
	}
}

// NewNTLMProxyHTTPClient creates an HTTP client like NewHTTPClient, except that every connection is
// tunneled through an HTTP proxy that requires NTLM authentication. Proxy settings from the
// environment are ignored.
func NewNTLMProxyHTTPClient(
	timeout time.Duration,
	proxyURL url.URL,
	username, password, domain string,
) *http.Client {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	transport := newHTTPTransport(timeout)
	transport.Proxy = nil
	transport.DialContext = ntlm.NewNTLMProxyDialContext(newDialer(timeout), proxyURL, username, password, domain,
		transport.TLSClientConfig)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func newDialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           newDialer(timeout).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
