package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomOccupationRequest struct {
	AdultsNumber     int    `json:"adultsNumber" validate:"min=1,max=9"`
	ChildrenAges     []int  `json:"childrenAges,omitempty" validate:"max=6,dive,min=0,max=17"`
	RoomType         string `json:"roomType,omitempty"`
	IsExtraBedNeeded bool   `json:"isExtraBedNeeded"`
}

type SearchFilters struct {
	BoardBasis     []string `json:"boardBasis,omitempty"`
	Ratings        []int    `json:"ratings,omitempty" validate:"dive,min=0,max=5"`
	OnlyRefundable bool     `json:"onlyRefundable"`
}

// SearchRequest is created once per user search and never mutated afterwards.
type SearchRequest struct {
	HtIDs        []string                `json:"htIds" validate:"required,min=1,dive,required"`
	CheckInDate  time.Time               `json:"checkInDate" validate:"required"`
	CheckOutDate time.Time               `json:"checkOutDate" validate:"required"`
	RoomDetails  []RoomOccupationRequest `json:"roomDetails" validate:"required,min=1,max=5,dive"`
	Filters      SearchFilters           `json:"filters"`
	Nationality  string                  `json:"nationality" validate:"required,len=2,alpha"`
	Residency    string                  `json:"residency" validate:"required,len=2,alpha"`
}

func (r SearchRequest) Nights() int {
	return int(r.CheckOutDate.Sub(r.CheckInDate).Hours() / 24)
}

// AvailabilityRequest is the per-supplier translation of a SearchRequest.
type AvailabilityRequest struct {
	AccommodationIDs []string
	CheckInDate      time.Time
	CheckOutDate     time.Time
	Rooms            []RoomOccupationRequest
	Filters          SearchFilters
	Nationality      string
	Residency        string
}

type TaskState string

const (
	TaskNotStarted TaskState = "NotStarted"
	TaskInProgress TaskState = "InProgress"
	TaskCompleted  TaskState = "Completed"
	TaskFailed     TaskState = "Failed"
)

func (s TaskState) IsTerminal() bool { return s == TaskCompleted || s == TaskFailed }

// SupplierSearchState is owned by the task of its supplier; it expires with the search.
type SupplierSearchState struct {
	SearchID    uuid.UUID `json:"searchId"`
	Supplier    Supplier  `json:"supplier"`
	TaskState   TaskState `json:"taskState"`
	ResultCount int       `json:"resultCount"`
	Error       string    `json:"error,omitempty"`
}

type SearchState struct {
	SearchID  uuid.UUID `json:"searchId"`
	TaskState TaskState `json:"taskState"`
}

// Agent identifies the caller of the search API.
type Agent struct {
	AgentID  int64 `json:"agentId"`
	AgencyID int64 `json:"agencyId"`
}

type SupplierAccommodation struct {
	Supplier        Supplier `json:"supplier"`
	AccommodationID string   `json:"accommodationId"`
}

// DuplicateGroup lists supplier listings that describe the same property.
type DuplicateGroup struct {
	ReportID string
	Members  []SupplierAccommodation
}
