package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"availability_hub/internal/domain"
)

// SelectResult re-fetches exact availability for the chosen result and for
// every listing in its duplicate group. Members that fail are left out; the
// selection fails only when all of them do.
func (o *Orchestrator) SelectResult(ctx context.Context, searchID, resultID uuid.UUID, agent domain.Agent, lang string) ([]domain.RoomContractSet, error) {
	ctx = domain.WithLanguage(ctx, lang)
	st, err := o.settings.Get(ctx, agent)
	if err != nil {
		return nil, err
	}
	suppliers := o.activeSuppliers(st)
	cached, err := o.results.GetResults(ctx, searchID, suppliers)
	if err != nil {
		return nil, err
	}
	chosen, ok := findResult(cached, resultID)
	if !ok {
		return nil, fmt.Errorf("%w: result %s in search %s", domain.ErrNotFound, resultID, searchID)
	}

	if st.PassedDeadlineOffersMode == domain.DeadlineHide && !dateOf(chosen.CheckInDate).After(tomorrow(o.now())) {
		return nil, fmt.Errorf("%w: check-in %s is inside the passed-deadline window", domain.ErrPolicyViolation, chosen.CheckInDate.Format("2006-01-02"))
	}

	members := o.selectionMembers(ctx, chosen, cached)
	sets := make([][]domain.RoomContractSet, len(members))
	failed := make([]bool, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.selectionWorkers)
	for i, m := range members {
		g.Go(func() error {
			res, err := o.exactFor(gctx, m)
			if err != nil {
				failed[i] = true
				log.Warn().Err(err).
					Str("search_id", searchID.String()).
					Str("supplier", string(m.Supplier)).
					Str("accommodation_id", m.AccommodationID).
					Msg("exact availability failed; member excluded")
				return nil
			}
			sets[i] = res
			return nil
		})
	}
	_ = g.Wait()

	pricer, err := o.pricing.ForAgent(ctx, agent, st)
	if err != nil {
		return nil, err
	}
	now := o.now()
	out := []domain.RoomContractSet{}
	okCount := 0
	for i, m := range members {
		if failed[i] {
			continue
		}
		okCount++
		priced, err := pricer.ProcessAll(ctx, sets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, withVisibility(filterSets(priced, m.CheckInDate, st, now), m.Supplier, st)...)
	}
	if okCount == 0 {
		return nil, fmt.Errorf("%w: no supplier returned exact availability for result %s", domain.ErrSupplierFailure, resultID)
	}
	return out, nil
}

// GetDeadline asks the result's supplier for the cancellation deadline of one
// room contract set.
func (o *Orchestrator) GetDeadline(ctx context.Context, searchID, resultID, roomContractSetID uuid.UUID, agent domain.Agent, lang string) (domain.Deadline, error) {
	ctx = domain.WithLanguage(ctx, lang)
	st, err := o.settings.Get(ctx, agent)
	if err != nil {
		return domain.Deadline{}, err
	}
	cached, err := o.results.GetResults(ctx, searchID, o.activeSuppliers(st))
	if err != nil {
		return domain.Deadline{}, err
	}
	r, ok := findResult(cached, resultID)
	if !ok {
		return domain.Deadline{}, fmt.Errorf("%w: result %s in search %s", domain.ErrNotFound, resultID, searchID)
	}
	found := false
	for _, s := range r.RoomContractSets {
		if s.ID == roomContractSetID {
			found = true
			break
		}
	}
	if !found {
		return domain.Deadline{}, fmt.Errorf("%w: room contract set %s", domain.ErrNotFound, roomContractSetID)
	}
	client, ok := o.suppliers.Client(r.Supplier)
	if !ok {
		return domain.Deadline{}, fmt.Errorf("%w: supplier %s is not configured", domain.ErrNotFound, r.Supplier)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return client.GetDeadline(callCtx, r.AvailabilityID, roomContractSetID.String())
}

// selectionMembers expands the chosen result to its duplicate group. Only
// listings this search has an availability id for can be re-fetched.
func (o *Orchestrator) selectionMembers(ctx context.Context, chosen domain.AccommodationAvailabilityResult, cached []domain.AccommodationAvailabilityResult) []domain.AccommodationAvailabilityResult {
	self := pairOf(chosen)
	members := []domain.AccommodationAvailabilityResult{chosen}
	if o.duplicates == nil {
		return members
	}
	groups, err := o.duplicates.GetDuplicateGroups(ctx, []domain.SupplierAccommodation{self})
	if err != nil {
		log.Warn().Err(err).Msg("duplicate lookup for selection failed; using the chosen result only")
		return members
	}

	byPair := make(map[domain.SupplierAccommodation]domain.AccommodationAvailabilityResult, len(cached))
	for _, r := range cached {
		if _, ok := byPair[pairOf(r)]; !ok {
			byPair[pairOf(r)] = r
		}
	}
	seen := map[domain.SupplierAccommodation]bool{self: true}
	for _, g := range groups {
		if !containsPair(g.Members, self) {
			continue
		}
		for _, m := range g.Members {
			if seen[m] {
				continue
			}
			seen[m] = true
			if r, ok := byPair[m]; ok {
				members = append(members, r)
			}
		}
	}
	return members
}

func (o *Orchestrator) exactFor(ctx context.Context, r domain.AccommodationAvailabilityResult) ([]domain.RoomContractSet, error) {
	client, ok := o.suppliers.Client(r.Supplier)
	if !ok {
		return nil, fmt.Errorf("%w: supplier %s is not configured", domain.ErrNotFound, r.Supplier)
	}
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	exact, err := client.GetExactAvailability(callCtx, domain.ExactAvailabilityRequest{
		AvailabilityID:  r.AvailabilityID,
		AccommodationID: r.AccommodationID,
	})
	if err != nil {
		return nil, err
	}
	return exact.RoomContractSets, nil
}

func findResult(rs []domain.AccommodationAvailabilityResult, id uuid.UUID) (domain.AccommodationAvailabilityResult, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return domain.AccommodationAvailabilityResult{}, false
}

func containsPair(ps []domain.SupplierAccommodation, p domain.SupplierAccommodation) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}
