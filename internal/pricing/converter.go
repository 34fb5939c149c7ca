package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"availability_hub/internal/domain"
)

var ErrNoRate = errors.New("pricing: no currency rate")

type RateSource interface {
	Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

type pair struct{ from, to domain.Currency }

// StaticRates is a fixed rate table. Inverse directions are derived.
type StaticRates struct {
	rates map[pair]decimal.Decimal
}

// NewStaticRates parses entries like {"EUR:USD": "1.08"}.
func NewStaticRates(entries map[string]string) (*StaticRates, error) {
	r := &StaticRates{rates: make(map[pair]decimal.Decimal, len(entries))}
	for k, v := range entries {
		from, to, ok := strings.Cut(k, ":")
		if !ok {
			return nil, fmt.Errorf("currency rate %q: want FROM:TO", k)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("currency rate %q: %w", k, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("currency rate %q must be positive", k)
		}
		r.rates[pair{domain.NormalizeCurrency(from), domain.NormalizeCurrency(to)}] = d
	}
	return r, nil
}

func (r *StaticRates) Rate(_ context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if d, ok := r.rates[pair{from, to}]; ok {
		return d, nil
	}
	if d, ok := r.rates[pair{to, from}]; ok {
		return decimal.NewFromInt(1).Div(d), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrNoRate, from, to)
}

// ConvertTo returns a PriceFunc converting any amount into target.
func ConvertTo(rates RateSource, target domain.Currency) PriceFunc {
	return func(ctx context.Context, m domain.MoneyAmount) (domain.MoneyAmount, error) {
		if m.Currency == target {
			return m, nil
		}
		rate, err := rates.Rate(ctx, m.Currency, target)
		if err != nil {
			return domain.MoneyAmount{}, err
		}
		return domain.MoneyAmount{Amount: m.Amount.Mul(rate), Currency: target}, nil
	}
}
