package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"availability_hub/internal/domain"
)

type AccommodationService struct {
	repo      domain.AccommodationRepository
	suppliers domain.SupplierRegistry
	cache     domain.Cache
	cacheTTL  time.Duration
}

func NewAccommodationService(r domain.AccommodationRepository, s domain.SupplierRegistry, c domain.Cache, ttl time.Duration) *AccommodationService {
	return &AccommodationService{repo: r, suppliers: s, cache: c, cacheTTL: ttl}
}

func accommodationKey(s domain.Supplier, id string) string {
	return fmt.Sprintf("accommodation:%s:%s", s, id)
}

// Get serves details from cache, then the database, then the supplier itself.
// A live fetch is stored so the next read hits the database.
func (s *AccommodationService) Get(ctx context.Context, sup domain.Supplier, id string) (domain.AccommodationDetails, error) {
	key := accommodationKey(sup, id)
	var out domain.AccommodationDetails
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	a, err := s.repo.GetAccommodation(ctx, sup, id)
	if errors.Is(err, domain.ErrNotFound) {
		a, err = s.fetch(ctx, sup, id)
	}
	if err != nil {
		return domain.AccommodationDetails{}, err
	}
	_ = s.cache.Set(ctx, key, a, int(s.cacheTTL.Seconds()))
	return a, nil
}

func (s *AccommodationService) fetch(ctx context.Context, sup domain.Supplier, id string) (domain.AccommodationDetails, error) {
	client, ok := s.suppliers.Client(sup)
	if !ok {
		return domain.AccommodationDetails{}, fmt.Errorf("%w: supplier %s", domain.ErrNotFound, sup)
	}
	a, err := client.GetAccommodation(ctx, id)
	if err != nil {
		return domain.AccommodationDetails{}, err
	}
	if err := s.repo.UpsertAccommodation(ctx, a); err != nil {
		log.Warn().Err(err).Str("supplier", string(sup)).Str("accommodation_id", id).Msg("store fetched accommodation failed")
	}
	return a, nil
}
