package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"availability_hub/internal/adapters/observability"
	"availability_hub/internal/domain"
)

type supplierTask struct {
	searchID uuid.UUID
	supplier domain.Supplier
	client   domain.SupplierClient
	request  domain.SearchRequest
	codes    []domain.SupplierCode
	agent    domain.Agent
	settings domain.EffectiveSearchSettings
}

// run executes one supplier task. Its outcome is visible only through the
// result store; failures never reach sibling tasks.
func (o *Orchestrator) run(ctx context.Context, t supplierTask) {
	defer o.wg.Done()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.finish(ctx, t, 0, 0, err)
		return
	}
	defer o.sem.Release(1)

	start := time.Now()
	var (
		count int
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("supplier task panic: %v", r)
			}
		}()
		count, err = o.search(ctx, t)
	}()
	o.finish(ctx, t, count, time.Since(start), err)
}

func (o *Orchestrator) search(ctx context.Context, t supplierTask) (int, error) {
	if err := o.results.SaveState(ctx, domain.SupplierSearchState{
		SearchID: t.searchID, Supplier: t.supplier, TaskState: domain.TaskInProgress,
	}); err != nil {
		return 0, err
	}
	if len(t.codes) == 0 {
		return 0, o.results.SaveResults(ctx, t.searchID, t.supplier, nil)
	}

	htByCode := make(map[string]string, len(t.codes))
	ids := make([]string, 0, len(t.codes))
	for _, c := range t.codes {
		if _, dup := htByCode[c.Code]; dup {
			continue
		}
		htByCode[c.Code] = c.HtID
		ids = append(ids, c.Code)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	avail, err := t.client.GetAvailability(callCtx, domain.AvailabilityRequest{
		AccommodationIDs: ids,
		CheckInDate:      t.request.CheckInDate,
		CheckOutDate:     t.request.CheckOutDate,
		Rooms:            t.request.RoomDetails,
		Filters:          t.request.Filters,
		Nationality:      t.request.Nationality,
		Residency:        t.request.Residency,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %s timed out after %s", domain.ErrSupplierFailure, t.supplier, o.timeout)
		}
		return 0, err
	}

	pricer, err := o.pricing.ForAgent(ctx, t.agent, t.settings)
	if err != nil {
		return 0, err
	}

	checkIn, checkOut := avail.CheckInDate, avail.CheckOutDate
	if checkIn.IsZero() {
		checkIn, checkOut = t.request.CheckInDate, t.request.CheckOutDate
	}

	results := make([]domain.AccommodationAvailabilityResult, 0, len(avail.Results))
	for _, a := range avail.Results {
		if len(a.RoomContractSets) == 0 {
			continue
		}
		sets, err := pricer.ProcessAll(ctx, a.RoomContractSets)
		if err != nil {
			return 0, fmt.Errorf("price %s/%s: %w", t.supplier, a.AccommodationID, err)
		}
		lo, hi := domain.PriceRange(sets)
		results = append(results, domain.AccommodationAvailabilityResult{
			ID:               uuid.New(),
			SearchID:         t.searchID,
			Supplier:         t.supplier,
			Timestamp:        time.Now().UnixNano(),
			AvailabilityID:   avail.AvailabilityID,
			AccommodationID:  a.AccommodationID,
			HtID:             htByCode[a.AccommodationID],
			RoomContractSets: sets,
			MinPrice:         lo,
			MaxPrice:         hi,
			CheckInDate:      checkIn,
			CheckOutDate:     checkOut,
		})
	}
	o.stampDuplicates(ctx, results)

	if err := o.results.SaveResults(ctx, t.searchID, t.supplier, results); err != nil {
		return 0, err
	}
	return len(results), nil
}

// stampDuplicates sets DuplicateReportID on results known to share a
// physical property with another supplier's listing. Best effort.
func (o *Orchestrator) stampDuplicates(ctx context.Context, rs []domain.AccommodationAvailabilityResult) {
	if o.duplicates == nil || len(rs) == 0 {
		return
	}
	pairs := make([]domain.SupplierAccommodation, len(rs))
	for i, r := range rs {
		pairs[i] = pairOf(r)
	}
	groups, err := o.duplicates.GetDuplicateGroups(ctx, pairs)
	if err != nil {
		log.Warn().Err(err).Msg("duplicate lookup during search failed")
		return
	}
	report := make(map[domain.SupplierAccommodation]string)
	for _, g := range groups {
		if len(g.Members) < 2 {
			continue
		}
		for _, m := range g.Members {
			report[m] = g.ReportID
		}
	}
	for i := range rs {
		if id, ok := report[pairOf(rs[i])]; ok {
			rs[i].DuplicateReportID = &id
		}
	}
}

// finish records the terminal state, metrics and the analytics event.
func (o *Orchestrator) finish(ctx context.Context, t supplierTask, count int, dur time.Duration, taskErr error) {
	state := domain.SupplierSearchState{
		SearchID:    t.searchID,
		Supplier:    t.supplier,
		TaskState:   domain.TaskCompleted,
		ResultCount: count,
	}
	if taskErr != nil {
		state.TaskState = domain.TaskFailed
		state.ResultCount = 0
		state.Error = taskErr.Error()
	}

	// the task context has no deadline; bound the bookkeeping writes
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.results.SaveState(wctx, state); err != nil {
		log.Error().Err(err).
			Str("search_id", t.searchID.String()).
			Str("supplier", string(t.supplier)).
			Msg("save supplier state failed")
	}
	observability.ObserveSupplierTask(string(t.supplier), string(state.TaskState), dur)

	ev := log.Info()
	if taskErr != nil {
		ev = log.Warn().Err(taskErr).Str("category", domain.Category(taskErr))
	}
	ev.Str("search_id", t.searchID.String()).
		Str("supplier", string(t.supplier)).
		Str("correlation_id", domain.CorrelationID(ctx)).
		Int("results", count).
		Dur("duration", dur).
		Msg("supplier task finished")

	if o.events == nil {
		return
	}
	if err := o.events.Publish(wctx, t.searchID.String(), domain.SupplierSearchFinished{
		Type:       domain.EventSupplierSearchFinished,
		SearchID:   t.searchID.String(),
		Supplier:   string(t.supplier),
		State:      string(state.TaskState),
		Results:    state.ResultCount,
		DurationMs: dur.Milliseconds(),
		Error:      state.Error,
	}); err != nil {
		log.Warn().Err(err).Str("search_id", t.searchID.String()).Msg("publish search event failed")
	}
}
