package store

import (
	"context"
	"errors"
	"io"
	"slices"
)

// Set is the trio of stores the auth service runs on. The members may be
// backed by different drivers, or by one driver serving several roles.
type Set struct {
	Accounts    Accounts
	Challenges  Challenges
	Revocations Revocations

	backends []any
}

// Attach registers a driver backing one or more members so Ping, Purgers
// and Close reach it. Attaching the same driver twice is a no-op.
func (s *Set) Attach(backend any) {
	if backend == nil || slices.Contains(s.backends, backend) {
		return
	}
	s.backends = append(s.backends, backend)
}

// Ping pings every attached backend implementing Pinger.
func (s *Set) Ping(ctx context.Context) error {
	var errs []error
	for _, b := range s.backends {
		if p, ok := b.(Pinger); ok {
			errs = append(errs, p.Ping(ctx))
		}
	}
	return errors.Join(errs...)
}

// Purgers returns every attached backend implementing Purger.
func (s *Set) Purgers() []Purger {
	var out []Purger
	for _, b := range s.backends {
		if p, ok := b.(Purger); ok {
			out = append(out, p)
		}
	}
	return out
}

// Close closes attached backends in reverse order of attachment.
func (s *Set) Close() error {
	var errs []error
	for i := len(s.backends) - 1; i >= 0; i-- {
		if c, ok := s.backends[i].(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	s.backends = nil
	return errors.Join(errs...)
}
