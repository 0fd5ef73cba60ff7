package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-view/internal/weather"
)

var (
	// ErrNotFound is returned when no probe has been recorded for a city.
	ErrNotFound = errors.New("no probe results for city")
)

// ProbeHistory holds a time-ordered list of probe results for a city.
type ProbeHistory struct {
	Results []weather.ProbeResult
}

// MemoryStore is a concurrency-safe in-memory history of upstream probes.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city, value: history
	data map[string]*ProbeHistory

	maxHistory int           // max number of results per city
	maxAge     time.Duration // optional max age for results

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// SaveProbe appends a result for its city and enforces retention.
func (s *MemoryStore) SaveProbe(result weather.ProbeResult) {
	key := cityKey(result.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &ProbeHistory{}
		s.data[key] = history
	}

	history.Results = append(history.Results, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	// Enforce retention by age. The newest result is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results)-1; i++ {
			if !history.Results[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.Results = history.Results[i:]
	}
}

// GetLatest returns the most recent result for a city.
func (s *MemoryStore) GetLatest(city string) (weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.Results) == 0 {
		return weather.ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// GetRange returns all results for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.ProbeResult
	for _, r := range history.Results {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
