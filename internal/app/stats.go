package service

import (
	"context"
)

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	snap := s.store.Snapshot()
	view, _ := s.rotator.Current()

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.deduper.Size(),
		"snapshotVersion":  snap.Version(),
		"tvView":           string(view),
		"unreadCount":      len(snap.UnreadNotifications()),
		"currentContestID": "",
	}
	for collection, n := range snap.Counts() {
		stats[collection] = n
	}
	if c, ok := snap.CurrentContest(); ok {
		stats["currentContestID"] = c.ID
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["workers"] = s.pool.Size()
	}
	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}
