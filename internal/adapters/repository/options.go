package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock sets the time source used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator used for notification ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *MemoryStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithNotificationLimit keeps at most limit notifications, dropping the oldest.
// limit <= 0 keeps everything.
func WithNotificationLimit(limit int) Option {
	return func(s *MemoryStore) {
		s.notificationLimit = limit
	}
}
