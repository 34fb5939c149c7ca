package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"availability_hub/internal/domain"
)

// SearchService is the wide availability search as the API sees it.
type SearchService interface {
	StartSearch(ctx context.Context, req domain.SearchRequest, agent domain.Agent, lang string) (uuid.UUID, error)
	GetState(ctx context.Context, searchID uuid.UUID, agent domain.Agent) (domain.SearchState, error)
	GetResult(ctx context.Context, searchID uuid.UUID, agent domain.Agent) ([]domain.WideAvailabilityResult, error)
	SelectResult(ctx context.Context, searchID, resultID uuid.UUID, agent domain.Agent, lang string) ([]domain.RoomContractSet, error)
	GetDeadline(ctx context.Context, searchID, resultID, roomContractSetID uuid.UUID, agent domain.Agent, lang string) (domain.Deadline, error)
}

type AccommodationReader interface {
	Get(ctx context.Context, s domain.Supplier, id string) (domain.AccommodationDetails, error)
}

type Handlers struct {
	Search         SearchService
	Accommodations AccommodationReader
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/availabilities/searches", func(r chi.Router) {
		r.Post("/", h.startSearch)
		r.Get("/{searchId}/state", h.getState)
		r.Get("/{searchId}/results", h.getResults)
		r.Get("/{searchId}/results/{resultId}/room-contract-sets", h.selectResult)
		r.Get("/{searchId}/results/{resultId}/room-contract-sets/{roomContractSetId}/deadline", h.getDeadline)
	})
	if h.Accommodations != nil {
		s.mux.Get("/v1/accommodations/{supplier}/{id}", h.getAccommodation)
	}
}

// searchRequestBody accepts plain dates as well as RFC 3339 timestamps.
type searchRequestBody struct {
	HtIDs        []string                       `json:"htIds"`
	CheckInDate  string                         `json:"checkInDate"`
	CheckOutDate string                         `json:"checkOutDate"`
	RoomDetails  []domain.RoomOccupationRequest `json:"roomDetails"`
	Filters      domain.SearchFilters           `json:"filters"`
	Nationality  string                         `json:"nationality"`
	Residency    string                         `json:"residency"`
}

func (b searchRequestBody) toDomain() (domain.SearchRequest, error) {
	in, err := parseDate(b.CheckInDate)
	if err != nil {
		return domain.SearchRequest{}, fmt.Errorf("%w: checkInDate: %v", domain.ErrValidation, err)
	}
	out, err := parseDate(b.CheckOutDate)
	if err != nil {
		return domain.SearchRequest{}, fmt.Errorf("%w: checkOutDate: %v", domain.ErrValidation, err)
	}
	return domain.SearchRequest{
		HtIDs:        b.HtIDs,
		CheckInDate:  in,
		CheckOutDate: out,
		RoomDetails:  b.RoomDetails,
		Filters:      b.Filters,
		Nationality:  strings.ToUpper(b.Nationality),
		Residency:    strings.ToUpper(b.Residency),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handlers) startSearch(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentFrom(w, r)
	if !ok {
		return
	}
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid body: %v", domain.ErrValidation, err))
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.Search.StartSearch(r.Context(), req, agent, langFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"searchId": id.String()})
}

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "searchId")
	if !ok {
		return
	}
	st, err := h.Search.GetState(r.Context(), id, agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) getResults(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "searchId")
	if !ok {
		return
	}
	rs, err := h.Search.GetResult(r.Context(), id, agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handlers) selectResult(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentFrom(w, r)
	if !ok {
		return
	}
	searchID, ok := uuidParam(w, r, "searchId")
	if !ok {
		return
	}
	resultID, ok := uuidParam(w, r, "resultId")
	if !ok {
		return
	}
	sets, err := h.Search.SelectResult(r.Context(), searchID, resultID, agent, langFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *Handlers) getDeadline(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentFrom(w, r)
	if !ok {
		return
	}
	searchID, ok := uuidParam(w, r, "searchId")
	if !ok {
		return
	}
	resultID, ok := uuidParam(w, r, "resultId")
	if !ok {
		return
	}
	setID, ok := uuidParam(w, r, "roomContractSetId")
	if !ok {
		return
	}
	d, err := h.Search.GetDeadline(r.Context(), searchID, resultID, setID, agent, langFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) getAccommodation(w http.ResponseWriter, r *http.Request) {
	a, err := h.Accommodations.Get(r.Context(), domain.Supplier(chi.URLParam(r, "supplier")), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// agentFrom reads the caller identity set by the upstream gateway.
func agentFrom(w http.ResponseWriter, r *http.Request) (domain.Agent, bool) {
	agentID, err1 := strconv.ParseInt(r.Header.Get("X-Agent-Id"), 10, 64)
	agencyID, err2 := strconv.ParseInt(r.Header.Get("X-Agency-Id"), 10, 64)
	if err1 != nil || err2 != nil || agentID <= 0 || agencyID <= 0 {
		writeProblem(w, http.StatusUnauthorized, "Missing agent", "X-Agent-Id and X-Agency-Id must be positive integers")
		return domain.Agent{}, false
	}
	return domain.Agent{AgentID: agentID, AgencyID: agencyID}, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name))
		return uuid.Nil, false
	}
	return id, true
}

// langFrom prefers ?lang= and falls back to the primary Accept-Language tag.
func langFrom(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return strings.ToLower(l)
	}
	al := r.Header.Get("Accept-Language")
	if al == "" {
		return "en"
	}
	tag := strings.TrimSpace(strings.SplitN(strings.SplitN(al, ",", 2)[0], ";", 2)[0])
	tag = strings.ToLower(strings.SplitN(tag, "-", 2)[0])
	if tag == "" || tag == "*" {
		return "en"
	}
	return tag
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPolicyViolation):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSupplierFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		detail = "internal error"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: domain.Category(err), Title: http.StatusText(status), Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write response body failed")
	}
}
