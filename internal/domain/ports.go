package domain

import (
	"context"

	"github.com/google/uuid"
)

// SupplierClient is one third-party hotel inventory backend.
type SupplierClient interface {
	GetAvailability(ctx context.Context, req AvailabilityRequest) (SupplierAvailability, error)
	GetExactAvailability(ctx context.Context, req ExactAvailabilityRequest) (ExactAvailability, error)
	GetAccommodation(ctx context.Context, accommodationID string) (AccommodationDetails, error)
	GetDeadline(ctx context.Context, availabilityID, roomContractSetID string) (Deadline, error)
	Book(ctx context.Context, req BookingRequest) (BookingDetails, error)
	Cancel(ctx context.Context, referenceCode string) error
}

type SupplierRegistry interface {
	Client(s Supplier) (SupplierClient, bool)
	Suppliers() []Supplier
}

type DuplicateRegistry interface {
	GetDuplicateGroups(ctx context.Context, pairs []SupplierAccommodation) ([]DuplicateGroup, error)
}

// SettingsStore reads persisted overrides; a missing record is (nil, nil).
type SettingsStore interface {
	GetAgentSettings(ctx context.Context, agentID, agencyID int64) (*SettingsOverride, error)
	GetAgencySettings(ctx context.Context, agencyID int64) (*SettingsOverride, error)
}

// LocationResolver maps HT ids to supplier-specific accommodation codes.
type LocationResolver interface {
	Resolve(ctx context.Context, htIDs []string) (map[Supplier][]SupplierCode, error)
}

type SupplierCode struct {
	HtID string
	Code string
}

type MarkupPolicyStore interface {
	GetPolicies(ctx context.Context, agent Agent) ([]MarkupPolicy, error)
}

// ResultStore is the search-scoped cache. Rows expire on their own.
type ResultStore interface {
	SaveResults(ctx context.Context, searchID uuid.UUID, s Supplier, rs []AccommodationAvailabilityResult) error
	GetResults(ctx context.Context, searchID uuid.UUID, suppliers []Supplier) ([]AccommodationAvailabilityResult, error)
	SaveState(ctx context.Context, st SupplierSearchState) error
	GetStates(ctx context.Context, searchID uuid.UUID, suppliers []Supplier) ([]SupplierSearchState, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

type AccommodationRepository interface {
	UpsertAccommodation(ctx context.Context, a AccommodationDetails) error
	GetAccommodation(ctx context.Context, s Supplier, accommodationID string) (AccommodationDetails, error)
	ListMappedAccommodations(ctx context.Context) ([]SupplierAccommodation, error)
	LogMiss(ctx context.Context, s Supplier, accommodationID string, status int, reason string) error
}

// Locker serializes money-affecting operations on one entity.
type Locker interface {
	Acquire(ctx context.Context, entityID string) (release func(context.Context) error, err error)
}
