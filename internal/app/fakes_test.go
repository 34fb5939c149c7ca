package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"availability_hub/internal/domain"
)

// ---- suppliers ----

type fakeSupplier struct {
	avail    domain.SupplierAvailability
	err      error
	gate     chan struct{}
	exact    map[string][]domain.RoomContractSet
	exactErr error
	deadline domain.Deadline
	details  map[string]domain.AccommodationDetails

	availCalls atomic.Int32
	exactCalls atomic.Int32
	lastReq    atomic.Value // domain.AvailabilityRequest
}

func (f *fakeSupplier) GetAvailability(ctx context.Context, req domain.AvailabilityRequest) (domain.SupplierAvailability, error) {
	f.availCalls.Add(1)
	f.lastReq.Store(req)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return domain.SupplierAvailability{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.SupplierAvailability{}, f.err
	}
	return f.avail, nil
}

func (f *fakeSupplier) GetExactAvailability(ctx context.Context, req domain.ExactAvailabilityRequest) (domain.ExactAvailability, error) {
	f.exactCalls.Add(1)
	if f.exactErr != nil {
		return domain.ExactAvailability{}, f.exactErr
	}
	return domain.ExactAvailability{
		AvailabilityID:   req.AvailabilityID,
		AccommodationID:  req.AccommodationID,
		RoomContractSets: f.exact[req.AccommodationID],
	}, nil
}

func (f *fakeSupplier) GetAccommodation(ctx context.Context, id string) (domain.AccommodationDetails, error) {
	if f.err != nil {
		return domain.AccommodationDetails{}, f.err
	}
	a, ok := f.details[id]
	if !ok {
		return domain.AccommodationDetails{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeSupplier) GetDeadline(ctx context.Context, availabilityID, roomContractSetID string) (domain.Deadline, error) {
	return f.deadline, nil
}

func (f *fakeSupplier) Book(ctx context.Context, req domain.BookingRequest) (domain.BookingDetails, error) {
	return domain.BookingDetails{}, errors.New("not implemented")
}

func (f *fakeSupplier) Cancel(ctx context.Context, referenceCode string) error { return nil }

type fakeRegistry map[domain.Supplier]domain.SupplierClient

func (r fakeRegistry) Client(s domain.Supplier) (domain.SupplierClient, bool) {
	c, ok := r[s]
	return c, ok
}

func (r fakeRegistry) Suppliers() []domain.Supplier {
	out := make([]domain.Supplier, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---- stores ----

type fakeSettingsStore struct {
	agent  *domain.SettingsOverride
	agency *domain.SettingsOverride
	calls  atomic.Int32
}

func (f *fakeSettingsStore) GetAgentSettings(ctx context.Context, agentID, agencyID int64) (*domain.SettingsOverride, error) {
	f.calls.Add(1)
	return f.agent, nil
}

func (f *fakeSettingsStore) GetAgencySettings(ctx context.Context, agencyID int64) (*domain.SettingsOverride, error) {
	return f.agency, nil
}

type fakeLocations map[domain.Supplier][]domain.SupplierCode

func (f fakeLocations) Resolve(ctx context.Context, htIDs []string) (map[domain.Supplier][]domain.SupplierCode, error) {
	want := make(map[string]bool, len(htIDs))
	for _, h := range htIDs {
		want[h] = true
	}
	out := make(map[domain.Supplier][]domain.SupplierCode)
	for s, codes := range f {
		for _, c := range codes {
			if want[c.HtID] {
				out[s] = append(out[s], c)
			}
		}
	}
	return out, nil
}

type fakeDuplicates struct {
	groups []domain.DuplicateGroup
	calls  atomic.Int32
}

func (f *fakeDuplicates) GetDuplicateGroups(ctx context.Context, pairs []domain.SupplierAccommodation) ([]domain.DuplicateGroup, error) {
	f.calls.Add(1)
	var out []domain.DuplicateGroup
	for _, g := range f.groups {
		for _, m := range g.Members {
			if containsPair(pairs, m) {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func containsPair(ps []domain.SupplierAccommodation, p domain.SupplierAccommodation) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

type memResults struct {
	mu      sync.Mutex
	results map[string][]domain.AccommodationAvailabilityResult
	states  map[string]domain.SupplierSearchState
}

func newMemResults() *memResults {
	return &memResults{
		results: map[string][]domain.AccommodationAvailabilityResult{},
		states:  map[string]domain.SupplierSearchState{},
	}
}

func memKey(id uuid.UUID, s domain.Supplier) string { return id.String() + "/" + string(s) }

func (m *memResults) SaveResults(ctx context.Context, id uuid.UUID, s domain.Supplier, rs []domain.AccommodationAvailabilityResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[memKey(id, s)] = append([]domain.AccommodationAvailabilityResult(nil), rs...)
	return nil
}

func (m *memResults) GetResults(ctx context.Context, id uuid.UUID, suppliers []domain.Supplier) ([]domain.AccommodationAvailabilityResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AccommodationAvailabilityResult
	for _, s := range suppliers {
		out = append(out, m.results[memKey(id, s)]...)
	}
	return out, nil
}

func (m *memResults) SaveState(ctx context.Context, st domain.SupplierSearchState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[memKey(st.SearchID, st.Supplier)] = st
	return nil
}

func (m *memResults) GetStates(ctx context.Context, id uuid.UUID, suppliers []domain.Supplier) ([]domain.SupplierSearchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SupplierSearchState
	for _, s := range suppliers {
		if st, ok := m.states[memKey(id, s)]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memResults) state(id uuid.UUID, s domain.Supplier) (domain.SupplierSearchState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[memKey(id, s)]
	return st, ok
}

type memCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type recordingEvents struct {
	mu   sync.Mutex
	keys []string
	evs  []domain.SupplierSearchFinished
}

func (r *recordingEvents) Publish(ctx context.Context, key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	if ev, ok := v.(domain.SupplierSearchFinished); ok {
		r.evs = append(r.evs, ev)
	}
	return nil
}

func (r *recordingEvents) events() []domain.SupplierSearchFinished {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SupplierSearchFinished(nil), r.evs...)
}

// ---- builders ----

func usd(s string) domain.MoneyAmount {
	return domain.MoneyAmount{Amount: decimal.RequireFromString(s), Currency: "USD"}
}

func rcs(price string) domain.RoomContractSet {
	return domain.RoomContractSet{
		ID:   uuid.New(),
		Rate: domain.Rate{FinalPrice: usd(price), Gross: usd(price), Type: domain.PriceTypeRoomContractSet},
		Rooms: []domain.RoomContract{{
			BoardBasis:   "BB",
			AdultsNumber: 2,
			Rate:         domain.Rate{FinalPrice: usd(price), Gross: usd(price), Type: domain.PriceTypeRoom},
		}},
	}
}

func availability(id string, accs map[string][]domain.RoomContractSet) domain.SupplierAvailability {
	keys := make([]string, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := domain.SupplierAvailability{AvailabilityID: id}
	for _, k := range keys {
		out.Results = append(out.Results, domain.SupplierAccommodationAvailability{AccommodationID: k, RoomContractSets: accs[k]})
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func boolPtr(b bool) *bool { return &b }
