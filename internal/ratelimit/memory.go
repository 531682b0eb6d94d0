package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type memoryEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore keeps a token bucket per key in process memory.
// Limits are per instance, which suits development and single-node deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	idleTTL time.Duration
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryStore starts a background sweep that drops buckets idle for longer than idleTTL.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		idleTTL: idleTTL,
		stopCh:  make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Stop ends the background sweep.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	interval := window / time.Duration(limit)
	lim := s.limiter(key+"|"+strconv.Itoa(limit)+"|"+window.String(), rate.Every(interval), limit)

	res := Result{Limit: limit}
	if lim.Allow() {
		res.Allowed = true
		res.Remaining = max(int(lim.Tokens()), 0)
		return res, nil
	}

	r := lim.Reserve()
	res.RetryAfter = r.Delay()
	r.Cancel()
	if res.RetryAfter <= 0 {
		res.RetryAfter = interval
	}
	return res, nil
}

func (s *MemoryStore) limiter(key string, r rate.Limit, burst int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &memoryEntry{limiter: rate.NewLimiter(r, burst)}
		s.entries[key] = e
	}
	e.lastAccess = time.Now()
	return e.limiter
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.Sub(e.lastAccess) > s.idleTTL {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
