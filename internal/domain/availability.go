package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Supplier string

type PriceType string

const (
	PriceTypeRoom            PriceType = "Room"
	PriceTypeRoomContractSet PriceType = "RoomContractSet"
	PriceTypeDaily           PriceType = "Daily"
)

type Discount struct {
	Percent     decimal.Decimal `json:"percent"`
	Description string          `json:"description,omitempty"`
}

type Rate struct {
	FinalPrice  MoneyAmount `json:"finalPrice"`
	Gross       MoneyAmount `json:"gross"`
	Discounts   []Discount  `json:"discounts,omitempty"`
	Type        PriceType   `json:"type"`
	Description string      `json:"description,omitempty"`
}

type DailyRate struct {
	FromDate    time.Time   `json:"fromDate"`
	ToDate      time.Time   `json:"toDate"`
	FinalPrice  MoneyAmount `json:"finalPrice"`
	Gross       MoneyAmount `json:"gross"`
	Type        PriceType   `json:"type"`
	Description string      `json:"description,omitempty"`
}

type CancellationPolicy struct {
	FromDate   time.Time       `json:"fromDate"`
	Percentage decimal.Decimal `json:"percentage"`
}

type Deadline struct {
	Date     *time.Time           `json:"date,omitempty"`
	Policies []CancellationPolicy `json:"policies,omitempty"`
	Remarks  []string             `json:"remarks,omitempty"`
}

type RoomContract struct {
	BoardBasis            string      `json:"boardBasis"`
	MealPlan              string      `json:"mealPlan,omitempty"`
	RoomType              string      `json:"roomType"`
	AdultsNumber          int         `json:"adultsNumber"`
	ChildrenAges          []int       `json:"childrenAges,omitempty"`
	IsExtraBedNeeded      bool        `json:"isExtraBedNeeded"`
	IsAdvancePurchaseRate bool        `json:"isAdvancePurchaseRate"`
	ContractDescription   string      `json:"contractDescription,omitempty"`
	DailyRoomRates        []DailyRate `json:"dailyRoomRates,omitempty"`
	Rate                  Rate        `json:"rate"`
	Deadline              Deadline    `json:"deadline"`
}

// RoomContractSet is one purchasable bundle of rooms. After price processing
// Rate.FinalPrice equals the sum of Rooms[i].Rate.FinalPrice exactly.
type RoomContractSet struct {
	ID                    uuid.UUID      `json:"id"`
	Rate                  Rate           `json:"rate"`
	Deadline              Deadline       `json:"deadline"`
	IsAdvancePurchaseRate bool           `json:"isAdvancePurchaseRate"`
	Rooms                 []RoomContract `json:"rooms"`
	Tags                  []string       `json:"tags,omitempty"`
	IsDirectContract      bool           `json:"isDirectContract"`
	IsPackageRate         bool           `json:"isPackageRate"`
	Supplier              *Supplier      `json:"supplier,omitempty"`
}

// SupplierAvailability is the raw outcome of one supplier's availability call.
type SupplierAvailability struct {
	AvailabilityID string
	CheckInDate    time.Time
	CheckOutDate   time.Time
	NumberOfNights int
	Results        []SupplierAccommodationAvailability
}

type SupplierAccommodationAvailability struct {
	AccommodationID  string
	RoomContractSets []RoomContractSet
}

type ExactAvailabilityRequest struct {
	AvailabilityID  string
	AccommodationID string
}

type ExactAvailability struct {
	AvailabilityID   string
	AccommodationID  string
	CheckInDate      time.Time
	CheckOutDate     time.Time
	RoomContractSets []RoomContractSet
}

// AccommodationAvailabilityResult is one cached candidate offer of one supplier.
type AccommodationAvailabilityResult struct {
	ID                uuid.UUID         `json:"id"`
	SearchID          uuid.UUID         `json:"searchId"`
	Supplier          Supplier          `json:"supplier"`
	Timestamp         int64             `json:"timestamp"`
	AvailabilityID    string            `json:"availabilityId"`
	AccommodationID   string            `json:"accommodationId"`
	HtID              string            `json:"htId,omitempty"`
	RoomContractSets  []RoomContractSet `json:"roomContractSets"`
	MinPrice          decimal.Decimal   `json:"minPrice"`
	MaxPrice          decimal.Decimal   `json:"maxPrice"`
	CheckInDate       time.Time         `json:"checkInDate"`
	CheckOutDate      time.Time         `json:"checkOutDate"`
	DuplicateReportID *string           `json:"duplicateReportId,omitempty"`
}

// WideAvailabilityResult is what GetResult hands to the caller.
type WideAvailabilityResult struct {
	ID               uuid.UUID         `json:"id"`
	AccommodationID  string            `json:"accommodationId"`
	HtID             string            `json:"htId,omitempty"`
	RoomContractSets []RoomContractSet `json:"roomContractSets"`
	MinPrice         decimal.Decimal   `json:"minPrice"`
	MaxPrice         decimal.Decimal   `json:"maxPrice"`
	CheckInDate      time.Time         `json:"checkInDate"`
	CheckOutDate     time.Time         `json:"checkOutDate"`
	HasDuplicate     bool              `json:"hasDuplicate"`
	Supplier         *Supplier         `json:"supplier,omitempty"`
	Timestamp        int64             `json:"timestamp"`
}

// PriceRange returns min and max final price across the sets; zeros for an empty list.
func PriceRange(sets []RoomContractSet) (decimal.Decimal, decimal.Decimal) {
	if len(sets) == 0 {
		return decimal.Zero, decimal.Zero
	}
	lo, hi := sets[0].Rate.FinalPrice.Amount, sets[0].Rate.FinalPrice.Amount
	for _, s := range sets[1:] {
		p := s.Rate.FinalPrice.Amount
		if p.LessThan(lo) {
			lo = p
		}
		if p.GreaterThan(hi) {
			hi = p
		}
	}
	return lo, hi
}
