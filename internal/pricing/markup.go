package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"availability_hub/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Markup compounds percent policies in the order given (global, agency, agent).
func Markup(policies []domain.MarkupPolicy) PriceFunc {
	factor := decimal.NewFromInt(1)
	for _, p := range policies {
		factor = factor.Mul(hundred.Add(p.Percent).Div(hundred))
	}
	return func(_ context.Context, m domain.MoneyAmount) (domain.MoneyAmount, error) {
		return domain.MoneyAmount{Amount: m.Amount.Mul(factor), Currency: m.Currency}, nil
	}
}
