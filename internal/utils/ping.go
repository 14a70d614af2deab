package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// PingTimeout bounds one reachability check
const PingTimeout = 1500 * time.Millisecond

var schemePorts = map[string]string{
	"http":  "80",
	"https": "443",
	"s3":    "443",
}

// EndpointAddress resolves a URL ("https://s3.example.com") or a bare
// "host:port" to the TCP address to dial
func EndpointAddress(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid endpoint %q: no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = schemePorts[u.Scheme]
	}
	if port == "" {
		return "", fmt.Errorf("invalid endpoint %q: no port for scheme %q", endpoint, u.Scheme)
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// PingEndpoint opens and closes a TCP connection to endpoint within PingTimeout
func PingEndpoint(endpoint string) error {
	addr, err := EndpointAddress(endpoint)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn.Close()
}
