// Package dnscache keeps resolved ingestion hosts in memory so that
// connection setup does not hit the system resolver every time.
package dnscache

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/dnscache"

	"github.com/qoncrete/qoncrete-go/pkg/log"
)

// DefaultRefreshInterval is how often cached entries are re-resolved.
const DefaultRefreshInterval = 5 * time.Minute

// Cache wraps a dnscache.Resolver with a background refresh loop.
type Cache struct {
	resolver *dnscache.Resolver
	interval time.Duration
	logger   log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a cache. Call Start to begin refreshing.
func New(interval time.Duration, logger log.Logger) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Cache{
		resolver: &dnscache.Resolver{Timeout: 5 * time.Second},
		interval: interval,
		logger:   logger,
	}
}

// Start launches the refresh loop. Calling Start twice is a no-op.
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Drop entries nobody used since the last refresh.
				c.resolver.Refresh(true)
			}
		}
	}(c.done)
}

// Stop ends the refresh loop and waits for it to exit.
func (c *Cache) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LookupHost returns the cached addresses for host, resolving on a miss.
func (c *Cache) LookupHost(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}
	return c.resolver.LookupHost(ctx, host)
}

// DialContext returns a dial function that resolves through the cache and
// tries each address in turn with d.
func (c *Cache) DialContext(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := c.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true}
		}

		var errs []error
		for _, ip := range ips {
			conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		c.logger.Debug("dial failed for every cached address",
			log.String("host", host),
			log.Int("addresses", len(ips)),
		)
		return nil, errors.Join(errs...)
	}
}
