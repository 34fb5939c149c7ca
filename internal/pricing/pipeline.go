package pricing

import (
	"context"
	"fmt"

	"availability_hub/internal/domain"
)

type Pipeline struct {
	rates   RateSource
	markups domain.MarkupPolicyStore
	target  domain.Currency
}

func NewPipeline(rates RateSource, markups domain.MarkupPolicyStore, target domain.Currency) *Pipeline {
	return &Pipeline{rates: rates, markups: markups, target: target}
}

// AgentPricer prices sets for one agent; policies are loaded once.
type AgentPricer struct {
	convert PriceFunc
	markup  PriceFunc
}

func (p *Pipeline) ForAgent(ctx context.Context, agent domain.Agent, settings domain.EffectiveSearchSettings) (*AgentPricer, error) {
	ap := &AgentPricer{convert: ConvertTo(p.rates, p.target)}
	if settings.IsMarkupDisabled || p.markups == nil {
		return ap, nil
	}
	policies, err := p.markups.GetPolicies(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("load markup policies: %w", err)
	}
	if len(policies) > 0 {
		ap.markup = Markup(policies)
	}
	return ap, nil
}

// Process converts, marks up, rounds up and aligns one set.
func (a *AgentPricer) Process(ctx context.Context, set domain.RoomContractSet) (domain.RoomContractSet, error) {
	out, err := ProcessPrices(ctx, set, a.convert)
	if err != nil {
		return domain.RoomContractSet{}, err
	}
	if a.markup != nil {
		if out, err = ProcessPrices(ctx, out, a.markup); err != nil {
			return domain.RoomContractSet{}, err
		}
	}
	return AlignPrices(Ceil(out)), nil
}

func (a *AgentPricer) ProcessAll(ctx context.Context, sets []domain.RoomContractSet) ([]domain.RoomContractSet, error) {
	out := make([]domain.RoomContractSet, 0, len(sets))
	for _, s := range sets {
		p, err := a.Process(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
