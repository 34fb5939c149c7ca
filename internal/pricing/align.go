package pricing

import (
	"github.com/shopspring/decimal"

	"availability_hub/internal/domain"
)

// Ceil rounds every amount in the set up to its currency's minimal unit.
func Ceil(set domain.RoomContractSet) domain.RoomContractSet {
	out := cloneSet(set)
	out.Rate.FinalPrice = out.Rate.FinalPrice.Ceil()
	out.Rate.Gross = out.Rate.Gross.Ceil()
	for i := range out.Rooms {
		room := &out.Rooms[i]
		room.Rate.FinalPrice = room.Rate.FinalPrice.Ceil()
		room.Rate.Gross = room.Rate.Gross.Ceil()
		for j := range room.DailyRoomRates {
			d := &room.DailyRoomRates[j]
			d.FinalPrice = d.FinalPrice.Ceil()
			d.Gross = d.Gross.Ceil()
		}
	}
	return out
}

type priceTree struct {
	set   func(*domain.RoomContractSet) *domain.MoneyAmount
	room  func(*domain.RoomContract) *domain.MoneyAmount
	daily func(*domain.DailyRate) *domain.MoneyAmount
}

var (
	finalTree = priceTree{
		set:   func(s *domain.RoomContractSet) *domain.MoneyAmount { return &s.Rate.FinalPrice },
		room:  func(r *domain.RoomContract) *domain.MoneyAmount { return &r.Rate.FinalPrice },
		daily: func(d *domain.DailyRate) *domain.MoneyAmount { return &d.FinalPrice },
	}
	grossTree = priceTree{
		set:   func(s *domain.RoomContractSet) *domain.MoneyAmount { return &s.Rate.Gross },
		room:  func(r *domain.RoomContract) *domain.MoneyAmount { return &r.Rate.Gross },
		daily: func(d *domain.DailyRate) *domain.MoneyAmount { return &d.Gross },
	}
)

// AlignPrices makes every aggregate equal the sum of its parts, separately for
// the final price tree and the gross tree. Parts summing above the aggregate
// raise the aggregate; parts summing below it are raised one minimal unit at a
// time in turn until they match. Parts never decrease.
func AlignPrices(set domain.RoomContractSet) domain.RoomContractSet {
	out := cloneSet(set)
	alignTree(&out, finalTree)
	alignTree(&out, grossTree)
	return out
}

func alignTree(set *domain.RoomContractSet, t priceTree) {
	for i := range set.Rooms {
		alignRoom(&set.Rooms[i], t)
	}

	parts := make([]*domain.MoneyAmount, len(set.Rooms))
	for i := range set.Rooms {
		parts[i] = t.room(&set.Rooms[i])
	}
	alignLevel(t.set(set), parts)

	// rooms that took part of the set's remainder pass it on to their days
	for i := range set.Rooms {
		alignRoom(&set.Rooms[i], t)
	}
}

func alignRoom(room *domain.RoomContract, t priceTree) {
	parts := make([]*domain.MoneyAmount, len(room.DailyRoomRates))
	for i := range room.DailyRoomRates {
		parts[i] = t.daily(&room.DailyRoomRates[i])
	}
	alignLevel(t.room(room), parts)
}

func alignLevel(total *domain.MoneyAmount, parts []*domain.MoneyAmount) {
	if len(parts) == 0 {
		return
	}
	sum := sumOf(parts)
	switch sum.Cmp(total.Amount) {
	case 0:
		return
	case 1:
		total.Amount = sum
	default:
		distribute(total.Amount.Sub(sum), parts, total.Currency.MinimalUnit())
		// a remainder that is not a whole number of units overshoots by less than one unit
		if s := sumOf(parts); s.GreaterThan(total.Amount) {
			total.Amount = s
		}
	}
}

// distribute gives the same result as adding step to parts[0], parts[1], ...
// cyclically until diff is covered, without looping per unit.
func distribute(diff decimal.Decimal, parts []*domain.MoneyAmount, step decimal.Decimal) {
	units := diff.Div(step).Ceil().IntPart()
	n := int64(len(parts))
	each, extra := units/n, units%n
	for i, p := range parts {
		k := each
		if int64(i) < extra {
			k++
		}
		if k > 0 {
			p.Amount = p.Amount.Add(step.Mul(decimal.NewFromInt(k)))
		}
	}
}

func sumOf(parts []*domain.MoneyAmount) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(p.Amount)
	}
	return sum
}
