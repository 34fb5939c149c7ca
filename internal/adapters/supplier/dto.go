package supplier

import (
	"time"

	"availability_hub/internal/domain"
)

const dateLayout = "2006-01-02"

type availabilityRequestDTO struct {
	AccommodationIDs []string                       `json:"accommodationIds"`
	CheckInDate      string                         `json:"checkInDate"`
	CheckOutDate     string                         `json:"checkOutDate"`
	Rooms            []domain.RoomOccupationRequest `json:"rooms"`
	BoardBasis       []string                       `json:"boardBasis,omitempty"`
	Ratings          []int                          `json:"ratings,omitempty"`
	OnlyRefundable   bool                           `json:"onlyRefundable,omitempty"`
	Nationality      string                         `json:"nationality"`
	Residency        string                         `json:"residency"`
}

func toAvailabilityRequest(r domain.AvailabilityRequest) availabilityRequestDTO {
	return availabilityRequestDTO{
		AccommodationIDs: r.AccommodationIDs,
		CheckInDate:      r.CheckInDate.Format(dateLayout),
		CheckOutDate:     r.CheckOutDate.Format(dateLayout),
		Rooms:            r.Rooms,
		BoardBasis:       r.Filters.BoardBasis,
		Ratings:          r.Filters.Ratings,
		OnlyRefundable:   r.Filters.OnlyRefundable,
		Nationality:      r.Nationality,
		Residency:        r.Residency,
	}
}

type accommodationAvailabilityDTO struct {
	AccommodationID  string                   `json:"accommodationId"`
	RoomContractSets []domain.RoomContractSet `json:"roomContractSets"`
}

type availabilityResponseDTO struct {
	AvailabilityID string                         `json:"availabilityId"`
	CheckInDate    time.Time                      `json:"checkInDate"`
	CheckOutDate   time.Time                      `json:"checkOutDate"`
	NumberOfNights int                            `json:"numberOfNights"`
	Results        []accommodationAvailabilityDTO `json:"results"`
}

func (d availabilityResponseDTO) toDomain() domain.SupplierAvailability {
	out := domain.SupplierAvailability{
		AvailabilityID: d.AvailabilityID,
		CheckInDate:    d.CheckInDate,
		CheckOutDate:   d.CheckOutDate,
		NumberOfNights: d.NumberOfNights,
		Results:        make([]domain.SupplierAccommodationAvailability, 0, len(d.Results)),
	}
	for _, r := range d.Results {
		out.Results = append(out.Results, domain.SupplierAccommodationAvailability{
			AccommodationID:  r.AccommodationID,
			RoomContractSets: r.RoomContractSets,
		})
	}
	return out
}

type exactAvailabilityDTO struct {
	AvailabilityID   string                   `json:"availabilityId"`
	AccommodationID  string                   `json:"accommodationId"`
	CheckInDate      time.Time                `json:"checkInDate"`
	CheckOutDate     time.Time                `json:"checkOutDate"`
	RoomContractSets []domain.RoomContractSet `json:"roomContractSets"`
}

type bookingRequestDTO struct {
	AvailabilityID    string `json:"availabilityId"`
	AccommodationID   string `json:"accommodationId"`
	RoomContractSetID string `json:"roomContractSetId"`
	ReferenceCode     string `json:"referenceCode"`
	Nationality       string `json:"nationality"`
	Residency         string `json:"residency"`
	MainPassenger     string `json:"mainPassengerName"`
}

type bookingResponseDTO struct {
	ReferenceCode         string          `json:"referenceCode"`
	SupplierReferenceCode string          `json:"supplierReferenceCode"`
	Status                string          `json:"status"`
	CheckInDate           time.Time       `json:"checkInDate"`
	CheckOutDate          time.Time       `json:"checkOutDate"`
	Deadline              domain.Deadline `json:"deadline"`
}

// problemDTO is an RFC 7807 body.
type problemDTO struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
