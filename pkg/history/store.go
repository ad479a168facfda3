package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/cache"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/observability"
)

// Fetcher reads a history from the backend.
type Fetcher interface {
	History(ctx context.Context, userID, program string) (backend.HistoryResponse, error)
}

// Snapshot is a history as last read from the backend.
type Snapshot struct {
	UserID       string    `json:"user_id"`
	Program      string    `json:"program,omitempty"`
	Entries      []Entry   `json:"entries"`
	TotalCredits int       `json:"total_credits"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Store is the explicit history cache. Entries are replaced on every
// Reload and expire after the configured TTL.
type Store struct {
	fetch Fetcher
	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a store over c. A nil cache disables caching.
func NewStore(f Fetcher, c cache.Cache, keys cache.Keyer) *Store {
	if c == nil {
		c = cache.NullCache{}
	}
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &Store{fetch: f, cache: c, keys: keys, ttl: cache.TTLHistory, now: time.Now}
}

// SetTTL overrides the cache lifetime of snapshots.
func (s *Store) SetTTL(ttl time.Duration) { s.ttl = ttl }

// Load returns the cached snapshot, or reloads on a miss.
func (s *Store) Load(ctx context.Context, userID, program string) (Snapshot, error) {
	if err := errs.ValidateUserID(userID); err != nil {
		return Snapshot{}, err
	}
	key := s.keys.HistoryKey(userID, program)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var snap Snapshot
		if json.Unmarshal(data, &snap) == nil && snap.UserID == userID {
			observability.Cache().OnCacheHit(ctx, "history")
			return snap, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "history")
	return s.Reload(ctx, userID, program)
}

// Reload fetches the history and replaces the cached snapshot. On failure
// the cached snapshot is left as it was.
func (s *Store) Reload(ctx context.Context, userID, program string) (Snapshot, error) {
	if err := errs.ValidateUserID(userID); err != nil {
		return Snapshot{}, err
	}
	resp, err := s.fetch.History(ctx, userID, program)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		UserID:       userID,
		Program:      program,
		Entries:      FromBackend(resp.Courses),
		TotalCredits: resp.TotalCredits,
		FetchedAt:    s.now(),
	}
	return snap, s.put(ctx, snap)
}

// Invalidate drops the cached snapshot.
func (s *Store) Invalidate(ctx context.Context, userID, program string) error {
	return s.cache.Delete(ctx, s.keys.HistoryKey(userID, program))
}

func (s *Store) put(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.keys.HistoryKey(snap.UserID, snap.Program), data, s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "history", len(data))
	return nil
}
