package care

import (
	"time"

	registrykv "github.com/wellmind/care-service/internal/registry/kv"
)

const (
	defaultSessionRate   = 150
	defaultActivityDays  = 7
	defaultRepairTimeout = 30 * time.Second
)

// Store is the care-platform data layer: indexed fan-out writes plus the
// derived therapist views, all over a primitive kv store.
type Store struct {
	kv            registrykv.Store
	hasher        Hasher
	now           func() time.Time
	sessionRate   int
	activityDays  int
	repairTimeout time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source. Tests use this to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSessionRate sets the revenue attributed per completed session.
func WithSessionRate(rate int) Option {
	return func(s *Store) {
		if rate > 0 {
			s.sessionRate = rate
		}
	}
}

// WithActivityWindow sets how many days the dashboard activity feed
// looks back.
func WithActivityWindow(days int) Option {
	return func(s *Store) {
		if days > 0 {
			s.activityDays = days
		}
	}
}

// WithHasher overrides the password hasher.
func WithHasher(h Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

// WithRepairTimeout bounds background index repair runs.
func WithRepairTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.repairTimeout = d
		}
	}
}

// New creates a Store over the given kv backend.
func New(kv registrykv.Store, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		hasher:        BcryptHasher{},
		now:           time.Now,
		sessionRate:   defaultSessionRate,
		activityDays:  defaultActivityDays,
		repairTimeout: defaultRepairTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
