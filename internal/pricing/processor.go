// Package pricing transforms supplier prices into agent prices: currency
// conversion, markup, rounding to the currency's minimal unit and alignment of
// nested prices with their aggregates. Every function returns a new value and
// leaves its input untouched.
package pricing

import (
	"context"
	"fmt"

	"availability_hub/internal/domain"
)

// PriceFunc transforms one aggregate amount. It only sees totals; ProcessPrices
// spreads the outcome over the nested parts.
type PriceFunc func(ctx context.Context, price domain.MoneyAmount) (domain.MoneyAmount, error)

// ProcessPrices applies fn to the set's final price and rescales every nested
// amount by its share of the original total: part' = total' * part / total.
// A zero original total is a data defect and yields ErrDataInvariant.
func ProcessPrices(ctx context.Context, set domain.RoomContractSet, fn PriceFunc) (domain.RoomContractSet, error) {
	original := set.Rate.FinalPrice
	if original.Amount.IsZero() {
		return domain.RoomContractSet{}, fmt.Errorf("%w: room contract set %s has a zero final price", domain.ErrDataInvariant, set.ID)
	}
	total, err := fn(ctx, original)
	if err != nil {
		return domain.RoomContractSet{}, err
	}

	scale := func(part domain.MoneyAmount) domain.MoneyAmount {
		return domain.MoneyAmount{
			Amount:   total.Amount.Mul(part.Amount).Div(original.Amount),
			Currency: total.Currency,
		}
	}

	out := cloneSet(set)
	out.Rate.FinalPrice = total
	out.Rate.Gross = scale(set.Rate.Gross)
	for i := range out.Rooms {
		room := &out.Rooms[i]
		room.Rate.FinalPrice = scale(room.Rate.FinalPrice)
		room.Rate.Gross = scale(room.Rate.Gross)
		for j := range room.DailyRoomRates {
			d := &room.DailyRoomRates[j]
			d.FinalPrice = scale(d.FinalPrice)
			d.Gross = scale(d.Gross)
		}
	}
	return out, nil
}

// cloneSet copies the slices that price functions write to.
func cloneSet(s domain.RoomContractSet) domain.RoomContractSet {
	out := s
	if s.Rooms != nil {
		out.Rooms = make([]domain.RoomContract, len(s.Rooms))
		for i, r := range s.Rooms {
			out.Rooms[i] = r
			if r.DailyRoomRates != nil {
				out.Rooms[i].DailyRoomRates = append([]domain.DailyRate(nil), r.DailyRoomRates...)
			}
		}
	}
	return out
}
