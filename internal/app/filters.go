package app

import (
	"time"

	"availability_hub/internal/domain"
)

// filterSets drops sets the agent may not see. It never mutates sets.
func filterSets(sets []domain.RoomContractSet, checkIn time.Time, st domain.EffectiveSearchSettings, now time.Time) []domain.RoomContractSet {
	out := make([]domain.RoomContractSet, 0, len(sets))
	for _, s := range sets {
		if st.AprMode == domain.AprHide && s.IsAdvancePurchaseRate {
			continue
		}
		if st.PassedDeadlineOffersMode == domain.DeadlineHide && deadlinePassed(s, checkIn, now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// deadlinePassed reports whether the set's cancellation deadline, or the
// check-in date when it has none, falls on or before tomorrow.
func deadlinePassed(s domain.RoomContractSet, checkIn time.Time, now time.Time) bool {
	d := checkIn
	if s.Deadline.Date != nil {
		d = *s.Deadline.Date
	}
	return !dateOf(d).After(tomorrow(now))
}

func tomorrow(now time.Time) time.Time {
	return dateOf(now).AddDate(0, 0, 1)
}

// withVisibility stamps or hides supplier identity and the direct-contract flag.
func withVisibility(sets []domain.RoomContractSet, sup domain.Supplier, st domain.EffectiveSearchSettings) []domain.RoomContractSet {
	out := make([]domain.RoomContractSet, len(sets))
	for i, s := range sets {
		s.Supplier = nil
		if st.IsSupplierVisible {
			v := sup
			s.Supplier = &v
		}
		if !st.IsDirectContractFlagVisible {
			s.IsDirectContract = false
		}
		out[i] = s
	}
	return out
}

func supplierRef(sup domain.Supplier, st domain.EffectiveSearchSettings) *domain.Supplier {
	if !st.IsSupplierVisible {
		return nil
	}
	return &sup
}
