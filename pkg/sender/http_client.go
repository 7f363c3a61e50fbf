package sender

import (
	"context"
	"net"
	"net/http"
	"time"
)

// HTTPClient abstracts HTTP request execution for testing and custom transports.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Connection pool settings.
const (
	KeepAliveInterval = 5 * time.Second
	MaxIdleConns      = 512
	dialTimeout       = 30 * time.Second
	idleConnTimeout   = 90 * time.Second
)

// DialContextFunc dials a network connection.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewDialer returns the dialer used by the default transport.
func NewDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: KeepAliveInterval,
	}
}

// NewTransport returns a keep-alive transport with an unbounded number of
// connections per host and up to MaxIdleConns idle ones. A nil dial uses
// NewDialer.
func NewTransport(dial DialContextFunc) *http.Transport {
	if dial == nil {
		dial = NewDialer().DialContext
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dial,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          MaxIdleConns,
		MaxIdleConnsPerHost:   MaxIdleConns,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// NewHTTPClient returns a client over NewTransport. Timeouts are applied per
// request by HTTPSender, so the client itself has none. Redirects are not
// followed; a 3xx response is the delivery outcome.
func NewHTTPClient(dial DialContextFunc) *http.Client {
	return &http.Client{
		Transport: NewTransport(dial),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
