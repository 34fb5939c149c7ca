package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"availability_hub/internal/domain"
)

type dedupFixture struct {
	h    *harness
	a, b *fakeSupplier
	id   uuid.UUID
}

func newDedupFixture(t *testing.T, bExactErr error) dedupFixture {
	t.Helper()
	a := &fakeSupplier{
		avail: availability("av-a", map[string][]domain.RoomContractSet{"a-1": {rcs("100.00")}}),
		exact: map[string][]domain.RoomContractSet{"a-1": {rcs("101.00")}},
	}
	b := &fakeSupplier{
		avail:    availability("av-b", map[string][]domain.RoomContractSet{"b-9": {rcs("98.00")}}),
		exact:    map[string][]domain.RoomContractSet{"b-9": {rcs("99.00"), rcs("150.00")}},
		exactErr: bExactErr,
	}
	reg := fakeRegistry{"A": a, "B": b}
	locs := fakeLocations{"A": {{HtID: "ht-1", Code: "a-1"}}, "B": {{HtID: "ht-1", Code: "b-9"}}}
	h := newHarness(t, date(2020, 1, 1), reg, locs)
	h.duplicates.groups = []domain.DuplicateGroup{{
		ReportID: "report-1",
		Members:  []domain.SupplierAccommodation{{Supplier: "A", AccommodationID: "a-1"}, {Supplier: "B", AccommodationID: "b-9"}},
	}}
	h.settings.agent = &domain.SettingsOverride{IsSupplierVisible: boolPtr(true)}

	id, err := h.orch.StartSearch(context.Background(), searchRequest(date(2020, 1, 15), date(2020, 1, 20), "ht-1"), agent, "en")
	require.NoError(t, err)
	h.wait(t)
	return dedupFixture{h: h, a: a, b: b, id: id}
}

func resultFor(t *testing.T, rs []domain.WideAvailabilityResult, acc string) domain.WideAvailabilityResult {
	t.Helper()
	for _, r := range rs {
		if r.AccommodationID == acc {
			return r
		}
	}
	t.Fatalf("no result for %s", acc)
	return domain.WideAvailabilityResult{}
}

func TestGetResult_KeepsDuplicatesAndFlagsThem(t *testing.T) {
	f := newDedupFixture(t, nil)
	ctx := context.Background()
	before := f.h.duplicates.calls.Load()

	got, err := f.h.orch.GetResult(ctx, f.id, agent)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.True(t, r.HasDuplicate, r.AccommodationID)
	}
	assert.EqualValues(t, 1, f.h.duplicates.calls.Load()-before, "one registry lookup per merge")
}

func TestGetResult_DuplicateNeedsAnotherMemberInMerge(t *testing.T) {
	f := newDedupFixture(t, nil)
	f.h.settings.agent.EnabledSuppliers = []domain.Supplier{"A"}

	got, err := f.h.orch.GetResult(context.Background(), f.id, agent)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a-1", got[0].AccommodationID)
	assert.False(t, got[0].HasDuplicate)
}

func TestSelectResult_FetchesWholeDuplicateGroup(t *testing.T) {
	f := newDedupFixture(t, nil)
	ctx := context.Background()

	got, err := f.h.orch.GetResult(ctx, f.id, agent)
	require.NoError(t, err)
	chosen := resultFor(t, got, "a-1")

	sets, err := f.h.orch.SelectResult(ctx, f.id, chosen.ID, agent, "en")
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.EqualValues(t, 1, f.a.exactCalls.Load())
	assert.EqualValues(t, 1, f.b.exactCalls.Load())

	bySupplier := map[domain.Supplier]int{}
	for _, s := range sets {
		require.NotNil(t, s.Supplier)
		bySupplier[*s.Supplier]++
	}
	assert.Equal(t, map[domain.Supplier]int{"A": 1, "B": 2}, bySupplier)
}

func TestSelectResult_ExcludesFailedMember(t *testing.T) {
	f := newDedupFixture(t, errors.New("exact endpoint down"))
	ctx := context.Background()

	got, err := f.h.orch.GetResult(ctx, f.id, agent)
	require.NoError(t, err)

	// selecting either listing consults both suppliers
	for _, acc := range []string{"a-1", "b-9"} {
		sets, err := f.h.orch.SelectResult(ctx, f.id, resultFor(t, got, acc).ID, agent, "en")
		require.NoError(t, err)
		require.Len(t, sets, 1)
		assert.Equal(t, domain.Supplier("A"), *sets[0].Supplier)
		assert.Equal(t, "101.00", sets[0].Rate.FinalPrice.Amount.StringFixed(2))
	}
	assert.EqualValues(t, 2, f.a.exactCalls.Load())
	assert.EqualValues(t, 2, f.b.exactCalls.Load())
}

func TestSelectResult_FailsWhenEveryMemberFails(t *testing.T) {
	f := newDedupFixture(t, errors.New("down"))
	f.a.exactErr = errors.New("down too")
	ctx := context.Background()

	got, err := f.h.orch.GetResult(ctx, f.id, agent)
	require.NoError(t, err)

	_, err = f.h.orch.SelectResult(ctx, f.id, resultFor(t, got, "a-1").ID, agent, "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSupplierFailure))
}

func TestSelectResult_UnknownResult(t *testing.T) {
	f := newDedupFixture(t, nil)

	_, err := f.h.orch.SelectResult(context.Background(), f.id, uuid.New(), agent, "en")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSelectResult_PolicyViolationInsideDeadlineWindow(t *testing.T) {
	a := &fakeSupplier{
		avail: availability("av-a", map[string][]domain.RoomContractSet{"a-1": {rcs("100.00")}}),
		exact: map[string][]domain.RoomContractSet{"a-1": {rcs("100.00")}},
	}
	h := newHarness(t, date(2020, 1, 14), fakeRegistry{"A": a}, fakeLocations{"A": {{HtID: "ht-1", Code: "a-1"}}})
	hide := domain.DeadlineHide
	h.settings.agency = &domain.SettingsOverride{PassedDeadlineOffersMode: &hide}
	ctx := context.Background()

	id, err := h.orch.StartSearch(ctx, searchRequest(date(2020, 1, 15), date(2020, 1, 17), "ht-1"), agent, "en")
	require.NoError(t, err)
	h.wait(t)

	cached, err := h.results.GetResults(ctx, id, []domain.Supplier{"A"})
	require.NoError(t, err)
	require.Len(t, cached, 1)

	_, err = h.orch.SelectResult(ctx, id, cached[0].ID, agent, "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPolicyViolation))
	assert.EqualValues(t, 0, a.exactCalls.Load())
}

func TestGetDeadline(t *testing.T) {
	f := newDedupFixture(t, nil)
	d := date(2020, 1, 10)
	f.a.deadline = domain.Deadline{Date: &d, Remarks: []string{"free cancellation"}}
	ctx := context.Background()

	got, err := f.h.orch.GetResult(ctx, f.id, agent)
	require.NoError(t, err)
	r := resultFor(t, got, "a-1")

	dl, err := f.h.orch.GetDeadline(ctx, f.id, r.ID, r.RoomContractSets[0].ID, agent, "en")
	require.NoError(t, err)
	require.NotNil(t, dl.Date)
	assert.Equal(t, d, *dl.Date)

	_, err = f.h.orch.GetDeadline(ctx, f.id, r.ID, uuid.New(), agent, "en")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
