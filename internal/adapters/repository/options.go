package repository

import "time"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithMaxOpenConns caps the connection pool. It is ignored for sqlite, which
// always runs with a single connection.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithConnMaxIdleTime closes pooled connections idle for longer than d.
func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.connMaxIdleTime = d
		}
	}
}

// WithPingTimeout bounds the connectivity check done by Open.
func WithPingTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.pingTimeout = d
		}
	}
}
