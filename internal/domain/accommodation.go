package domain

import "time"

type AccommodationDetails struct {
	Supplier        Supplier `json:"supplier"`
	AccommodationID string   `json:"accommodationId"`
	Name            string   `json:"name"`
	Rating          *int     `json:"rating,omitempty"`
	Country         *string  `json:"country,omitempty"`
	Locality        *string  `json:"locality,omitempty"`
	Address         *string  `json:"address,omitempty"`
	Coords          *Coords  `json:"coords,omitempty"`
	Amenities       []string `json:"amenities,omitempty"`
	Photos          []string `json:"photos,omitempty"`
	RawJSON         []byte   `json:"-"` // full supplier payload
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type BookingRequest struct {
	AvailabilityID    string
	AccommodationID   string
	RoomContractSetID string
	ReferenceCode     string
	Nationality       string
	Residency         string
	MainPassenger     string
}

type BookingDetails struct {
	ReferenceCode         string
	SupplierReferenceCode string
	Status                string
	CheckInDate           time.Time
	CheckOutDate          time.Time
	Deadline              Deadline
}
