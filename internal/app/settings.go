package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"availability_hub/internal/domain"
)

// SettingsDefaults are the system-wide values used when neither the agent
// nor the agency record has an opinion.
type SettingsDefaults struct {
	EnabledSuppliers            []domain.Supplier
	AprMode                     domain.AprMode
	PassedDeadlineOffersMode    domain.PassedDeadlineOffersMode
	IsSupplierVisible           bool
	IsDirectContractFlagVisible bool
}

func DefaultSettings(suppliers []domain.Supplier) SettingsDefaults {
	return SettingsDefaults{
		EnabledSuppliers:         suppliers,
		AprMode:                  domain.AprDisplayOnly,
		PassedDeadlineOffersMode: domain.DeadlineDisplayOnly,
	}
}

type SettingsResolver struct {
	store    domain.SettingsStore
	cache    domain.Cache
	cacheTTL time.Duration
	defaults SettingsDefaults
}

func NewSettingsResolver(store domain.SettingsStore, cache domain.Cache, ttl time.Duration, defaults SettingsDefaults) *SettingsResolver {
	return &SettingsResolver{store: store, cache: cache, cacheTTL: ttl, defaults: defaults}
}

// Get returns the effective settings for the agent, cached for a few minutes.
func (r *SettingsResolver) Get(ctx context.Context, agent domain.Agent) (domain.EffectiveSearchSettings, error) {
	key := fmt.Sprintf("settings:%d:%d", agent.AgencyID, agent.AgentID)
	var out domain.EffectiveSearchSettings
	if r.cache != nil {
		if ok, err := r.cache.Get(ctx, key, &out); err == nil && ok {
			return out, nil
		} else if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("settings cache read failed")
		}
	}

	agentRec, err := r.store.GetAgentSettings(ctx, agent.AgentID, agent.AgencyID)
	if err != nil {
		return domain.EffectiveSearchSettings{}, fmt.Errorf("agent settings: %w", err)
	}
	agencyRec, err := r.store.GetAgencySettings(ctx, agent.AgencyID)
	if err != nil {
		return domain.EffectiveSearchSettings{}, fmt.Errorf("agency settings: %w", err)
	}
	out = ResolveSettings(agentRec, agencyRec, r.defaults)

	if r.cache != nil {
		_ = r.cache.Set(ctx, key, out, int(r.cacheTTL.Seconds()))
	}
	return out, nil
}

// ResolveSettings merges the three tiers. Each field takes the agent value,
// else the agency value, else the default. IsMarkupDisabled is the OR of both
// records.
func ResolveSettings(agent, agency *domain.SettingsOverride, d SettingsDefaults) domain.EffectiveSearchSettings {
	if agent == nil {
		agent = &domain.SettingsOverride{}
	}
	if agency == nil {
		agency = &domain.SettingsOverride{}
	}
	return domain.EffectiveSearchSettings{
		EnabledSuppliers:            firstList(agent.EnabledSuppliers, agency.EnabledSuppliers, d.EnabledSuppliers),
		AprMode:                     first(agent.AprMode, agency.AprMode, d.AprMode),
		PassedDeadlineOffersMode:    first(agent.PassedDeadlineOffersMode, agency.PassedDeadlineOffersMode, d.PassedDeadlineOffersMode),
		IsSupplierVisible:           first(agent.IsSupplierVisible, agency.IsSupplierVisible, d.IsSupplierVisible),
		IsDirectContractFlagVisible: first(agent.IsDirectContractFlagVisible, agency.IsDirectContractFlagVisible, d.IsDirectContractFlagVisible),
		IsMarkupDisabled:            isTrue(agent.IsMarkupDisabled) || isTrue(agency.IsMarkupDisabled),
	}
}

func first[T any](agent, agency *T, def T) T {
	if agent != nil {
		return *agent
	}
	if agency != nil {
		return *agency
	}
	return def
}

func isTrue(b *bool) bool { return b != nil && *b }

// firstList treats a nil list as no opinion; an empty non-nil list is an opinion.
func firstList[T any](agent, agency, def []T) []T {
	if agent != nil {
		return append([]T{}, agent...)
	}
	if agency != nil {
		return append([]T{}, agency...)
	}
	return append([]T{}, def...)
}
