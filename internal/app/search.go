package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"availability_hub/internal/domain"
	"availability_hub/internal/pricing"
)

type OrchestratorConfig struct {
	SupplierTimeout  time.Duration
	SearchWorkers    int64
	SelectionWorkers int
}

// Orchestrator runs wide availability searches. Supplier tasks report back
// only through the result store.
type Orchestrator struct {
	settings   *SettingsResolver
	locations  domain.LocationResolver
	suppliers  domain.SupplierRegistry
	results    domain.ResultStore
	duplicates domain.DuplicateRegistry
	pricing    *pricing.Pipeline
	events     domain.EventPublisher

	timeout          time.Duration
	selectionWorkers int
	sem              *semaphore.Weighted
	wg               sync.WaitGroup
	now              func() time.Time
}

func NewOrchestrator(
	settings *SettingsResolver,
	locations domain.LocationResolver,
	suppliers domain.SupplierRegistry,
	results domain.ResultStore,
	duplicates domain.DuplicateRegistry,
	pipeline *pricing.Pipeline,
	events domain.EventPublisher,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.SearchWorkers <= 0 {
		cfg.SearchWorkers = 32
	}
	if cfg.SelectionWorkers <= 0 {
		cfg.SelectionWorkers = 4
	}
	if cfg.SupplierTimeout <= 0 {
		cfg.SupplierTimeout = 30 * time.Second
	}
	return &Orchestrator{
		settings:         settings,
		locations:        locations,
		suppliers:        suppliers,
		results:          results,
		duplicates:       duplicates,
		pricing:          pipeline,
		events:           events,
		timeout:          cfg.SupplierTimeout,
		selectionWorkers: cfg.SelectionWorkers,
		sem:              semaphore.NewWeighted(cfg.SearchWorkers),
		now:              time.Now,
	}
}

// WithClock replaces the orchestrator clock. Used by tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// StartSearch validates the request, mints a search id and schedules one task
// per enabled supplier. It returns without waiting for any of them.
func (o *Orchestrator) StartSearch(ctx context.Context, req domain.SearchRequest, agent domain.Agent, lang string) (uuid.UUID, error) {
	if err := ValidateSearchRequest(req, o.now()); err != nil {
		return uuid.Nil, err
	}
	st, err := o.settings.Get(ctx, agent)
	if err != nil {
		return uuid.Nil, err
	}
	codes, err := o.locations.Resolve(ctx, req.HtIDs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve accommodations: %w", err)
	}

	searchID := uuid.New()
	// tasks outlive the request; they keep its values but not its deadline
	taskCtx := domain.WithLanguage(context.WithoutCancel(ctx), lang)

	suppliers := o.activeSuppliers(st)
	for _, sup := range suppliers {
		client, _ := o.suppliers.Client(sup)
		t := supplierTask{
			searchID: searchID,
			supplier: sup,
			client:   client,
			request:  req,
			codes:    codes[sup],
			agent:    agent,
			settings: st,
		}
		o.wg.Add(1)
		go o.run(taskCtx, t)
	}

	log.Info().
		Str("search_id", searchID.String()).
		Str("correlation_id", domain.CorrelationID(ctx)).
		Int("suppliers", len(suppliers)).
		Int("ht_ids", len(req.HtIDs)).
		Msg("search started")
	return searchID, nil
}

// Wait blocks until every scheduled supplier task has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetState reduces per-supplier states of the currently enabled suppliers.
// A supplier without a recorded state has not started yet.
func (o *Orchestrator) GetState(ctx context.Context, searchID uuid.UUID, agent domain.Agent) (domain.SearchState, error) {
	st, err := o.settings.Get(ctx, agent)
	if err != nil {
		return domain.SearchState{}, err
	}
	suppliers := o.activeSuppliers(st)
	states, err := o.results.GetStates(ctx, searchID, suppliers)
	if err != nil {
		return domain.SearchState{}, err
	}
	return domain.SearchState{SearchID: searchID, TaskState: reduceStates(suppliers, states)}, nil
}

func reduceStates(suppliers []domain.Supplier, states []domain.SupplierSearchState) domain.TaskState {
	bySupplier := make(map[domain.Supplier]domain.TaskState, len(states))
	for _, s := range states {
		bySupplier[s.Supplier] = s.TaskState
	}
	for _, sup := range suppliers {
		ts, ok := bySupplier[sup]
		if !ok {
			ts = domain.TaskNotStarted
		}
		if !ts.IsTerminal() {
			return domain.TaskInProgress
		}
	}
	return domain.TaskCompleted
}

// GetResult merges whatever is cached for the enabled suppliers, oldest
// first, flags duplicates and applies the agent's visibility filters.
func (o *Orchestrator) GetResult(ctx context.Context, searchID uuid.UUID, agent domain.Agent) ([]domain.WideAvailabilityResult, error) {
	st, err := o.settings.Get(ctx, agent)
	if err != nil {
		return nil, err
	}
	suppliers := o.activeSuppliers(st)
	cached, err := o.results.GetResults(ctx, searchID, suppliers)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		if err := o.allFailed(ctx, searchID, suppliers); err != nil {
			return nil, err
		}
		return []domain.WideAvailabilityResult{}, nil
	}

	sort.SliceStable(cached, func(i, j int) bool { return cached[i].Timestamp < cached[j].Timestamp })
	dups := o.duplicatePairs(ctx, cached)

	now := o.now()
	out := make([]domain.WideAvailabilityResult, 0, len(cached))
	for _, r := range cached {
		sets := withVisibility(filterSets(r.RoomContractSets, r.CheckInDate, st, now), r.Supplier, st)
		if len(sets) == 0 {
			continue
		}
		lo, hi := domain.PriceRange(sets)
		out = append(out, domain.WideAvailabilityResult{
			ID:               r.ID,
			AccommodationID:  r.AccommodationID,
			HtID:             r.HtID,
			RoomContractSets: sets,
			MinPrice:         lo,
			MaxPrice:         hi,
			CheckInDate:      r.CheckInDate,
			CheckOutDate:     r.CheckOutDate,
			HasDuplicate:     dups[pairOf(r)],
			Supplier:         supplierRef(r.Supplier, st),
			Timestamp:        r.Timestamp,
		})
	}
	return out, nil
}

// allFailed returns a supplier failure when every enabled supplier failed.
func (o *Orchestrator) allFailed(ctx context.Context, searchID uuid.UUID, suppliers []domain.Supplier) error {
	if len(suppliers) == 0 {
		return nil
	}
	states, err := o.results.GetStates(ctx, searchID, suppliers)
	if err != nil {
		return err
	}
	if len(states) < len(suppliers) {
		return nil
	}
	for _, s := range states {
		if s.TaskState != domain.TaskFailed {
			return nil
		}
	}
	return fmt.Errorf("%w: all %d suppliers failed for search %s", domain.ErrSupplierFailure, len(suppliers), searchID)
}

// duplicatePairs asks the registry once for the whole merge. A registry
// failure only loses the duplicate flags.
func (o *Orchestrator) duplicatePairs(ctx context.Context, rs []domain.AccommodationAvailabilityResult) map[domain.SupplierAccommodation]bool {
	if o.duplicates == nil {
		return nil
	}
	pairs := make([]domain.SupplierAccommodation, 0, len(rs))
	seen := make(map[domain.SupplierAccommodation]bool, len(rs))
	for _, r := range rs {
		p := pairOf(r)
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	groups, err := o.duplicates.GetDuplicateGroups(ctx, pairs)
	if err != nil {
		log.Warn().Err(err).Str("correlation_id", domain.CorrelationID(ctx)).Msg("duplicate registry lookup failed")
		return nil
	}
	// only members present in this merge count towards a group
	out := make(map[domain.SupplierAccommodation]bool)
	for _, g := range groups {
		present := make([]domain.SupplierAccommodation, 0, len(g.Members))
		for _, m := range g.Members {
			if seen[m] {
				present = append(present, m)
			}
		}
		if len(present) < 2 {
			continue
		}
		for _, m := range present {
			out[m] = true
		}
	}
	return out
}

// activeSuppliers keeps the enabled suppliers that have a configured client.
func (o *Orchestrator) activeSuppliers(st domain.EffectiveSearchSettings) []domain.Supplier {
	out := make([]domain.Supplier, 0, len(st.EnabledSuppliers))
	seen := make(map[domain.Supplier]bool, len(st.EnabledSuppliers))
	for _, s := range st.EnabledSuppliers {
		if seen[s] {
			continue
		}
		seen[s] = true
		if _, ok := o.suppliers.Client(s); ok {
			out = append(out, s)
		}
	}
	return out
}

func pairOf(r domain.AccommodationAvailabilityResult) domain.SupplierAccommodation {
	return domain.SupplierAccommodation{Supplier: r.Supplier, AccommodationID: r.AccommodationID}
}
