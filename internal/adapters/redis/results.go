package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"availability_hub/internal/adapters/observability"
	"availability_hub/internal/domain"
)

const resultsCache = "search_results"

type envelope struct {
	Created time.Time       `json:"created"`
	Data    json.RawMessage `json:"data"`
}

// ResultStore keeps per-supplier search results and task states for one
// retention window. Entries older than the window are invisible even if
// redis still holds them.
type ResultStore struct {
	c         redis.Cmdable
	retention time.Duration
	now       func() time.Time
}

func NewResultStore(c redis.Cmdable, retention time.Duration) *ResultStore {
	return &ResultStore{c: c, retention: retention, now: time.Now}
}

// WithClock replaces the store clock. Used by tests.
func (s *ResultStore) WithClock(now func() time.Time) *ResultStore {
	s.now = now
	return s
}

func resultsKey(searchID uuid.UUID, sup domain.Supplier) string {
	return fmt.Sprintf("availability:%s:results:%s", searchID, sup)
}

func stateKey(searchID uuid.UUID, sup domain.Supplier) string {
	return fmt.Sprintf("availability:%s:state:%s", searchID, sup)
}

func (s *ResultStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Created: s.now().UTC(), Data: data})
	if err != nil {
		return err
	}
	observability.ObserveCache(resultsCache, "set")
	return s.c.Set(ctx, key, b, s.retention).Err()
}

// getMany returns the live payloads for keys, skipping missing and expired ones.
func (s *ResultStore) getMany(ctx context.Context, keys []string) ([]json.RawMessage, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-s.retention)
	out := make([]json.RawMessage, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			observability.ObserveCache(resultsCache, "miss")
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(str), &env); err != nil {
			log.Warn().Err(err).Str("key", keys[i]).Msg("skip malformed cache entry")
			continue
		}
		if env.Created.Before(cutoff) {
			observability.ObserveCache(resultsCache, "expired")
			continue
		}
		observability.ObserveCache(resultsCache, "hit")
		out = append(out, env.Data)
	}
	return out, nil
}

func (s *ResultStore) SaveResults(ctx context.Context, searchID uuid.UUID, sup domain.Supplier, rs []domain.AccommodationAvailabilityResult) error {
	if rs == nil {
		rs = []domain.AccommodationAvailabilityResult{}
	}
	if err := s.put(ctx, resultsKey(searchID, sup), rs); err != nil {
		return fmt.Errorf("save results %s/%s: %w", searchID, sup, err)
	}
	return nil
}

func (s *ResultStore) GetResults(ctx context.Context, searchID uuid.UUID, suppliers []domain.Supplier) ([]domain.AccommodationAvailabilityResult, error) {
	keys := make([]string, len(suppliers))
	for i, sup := range suppliers {
		keys[i] = resultsKey(searchID, sup)
	}
	raws, err := s.getMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get results %s: %w", searchID, err)
	}
	var out []domain.AccommodationAvailabilityResult
	for _, raw := range raws {
		var rs []domain.AccommodationAvailabilityResult
		if err := json.Unmarshal(raw, &rs); err != nil {
			log.Warn().Err(err).Str("search_id", searchID.String()).Msg("skip undecodable supplier results")
			continue
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (s *ResultStore) SaveState(ctx context.Context, st domain.SupplierSearchState) error {
	if err := s.put(ctx, stateKey(st.SearchID, st.Supplier), st); err != nil {
		return fmt.Errorf("save state %s/%s: %w", st.SearchID, st.Supplier, err)
	}
	return nil
}

func (s *ResultStore) GetStates(ctx context.Context, searchID uuid.UUID, suppliers []domain.Supplier) ([]domain.SupplierSearchState, error) {
	keys := make([]string, len(suppliers))
	for i, sup := range suppliers {
		keys[i] = stateKey(searchID, sup)
	}
	raws, err := s.getMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get states %s: %w", searchID, err)
	}
	out := make([]domain.SupplierSearchState, 0, len(raws))
	for _, raw := range raws {
		var st domain.SupplierSearchState
		if err := json.Unmarshal(raw, &st); err != nil {
			log.Warn().Err(err).Str("search_id", searchID.String()).Msg("skip undecodable supplier state")
			continue
		}
		out = append(out, st)
	}
	return out, nil
}
