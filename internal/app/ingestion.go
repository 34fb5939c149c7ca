package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"availability_hub/internal/domain"
)

type IngestionService struct {
	suppliers domain.SupplierRegistry
	repo      domain.AccommodationRepository
	cache     domain.Cache
	locker    domain.Locker
}

func NewIngestionService(s domain.SupplierRegistry, r domain.AccommodationRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{suppliers: s, repo: r, cache: cache}
}

// WithLocker makes concurrent ingestors skip listings another one is refreshing.
func (s *IngestionService) WithLocker(l domain.Locker) *IngestionService {
	s.locker = l
	return s
}

// IngestAccommodation refreshes one supplier listing. Listings the supplier no
// longer serves (404) or refuses (401/403) are recorded as misses, not errors.
func (s *IngestionService) IngestAccommodation(ctx context.Context, sup domain.Supplier, id string) error {
	client, ok := s.suppliers.Client(sup)
	if !ok {
		return fmt.Errorf("%w: supplier %s", domain.ErrNotFound, sup)
	}
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "ingest:"+string(sup)+":"+id)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Str("supplier", string(sup)).Str("accommodation_id", id).Msg("release ingest lock failed")
			}
		}()
	}

	a, err := client.GetAccommodation(ctx, id)
	if err != nil {
		var se *domain.SupplierError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, sup, id, http.StatusNotFound, "not found")
			s.invalidate(ctx, sup, id)
			return nil
		case errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden):
			_ = s.repo.LogMiss(ctx, sup, id, http.StatusForbidden, "inactive")
			s.invalidate(ctx, sup, id)
			return nil
		default:
			return err
		}
	}

	if err := s.repo.UpsertAccommodation(ctx, a); err != nil {
		return fmt.Errorf("upsert accommodation %s/%s: %w", sup, id, err)
	}
	s.invalidate(ctx, sup, id)
	return nil
}

func (s *IngestionService) invalidate(ctx context.Context, sup domain.Supplier, id string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, accommodationKey(sup, id))
	}
}
