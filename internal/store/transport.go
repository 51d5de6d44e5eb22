package store

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newTransport clones the default transport and, when targetHost is set, routes
// every connection to it regardless of the request host.
func newTransport(opts Options) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if opts.TargetHost != "" {
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		target := opts.TargetHost
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, overrideAddr(addr, target))
		}
		// A proxy would receive the original host and bypass the override.
		t.Proxy = nil
	}

	if opts.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in for backends addressed by IP
			MinVersion:         tls.VersionTLS12,
		}
	}

	if opts.Concurrency > t.MaxIdleConnsPerHost {
		t.MaxIdleConnsPerHost = opts.Concurrency
	}
	return t
}

// overrideAddr swaps the host of addr for target, keeping addr's port unless
// target carries its own.
func overrideAddr(addr, target string) string {
	if _, _, err := net.SplitHostPort(target); err == nil {
		return target
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return target
	}
	return net.JoinHostPort(target, port)
}
