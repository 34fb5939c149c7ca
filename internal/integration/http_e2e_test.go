//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "availability_hub/internal/adapters/http_server"
	redisad "availability_hub/internal/adapters/redis"
	"availability_hub/internal/adapters/supplier"
	"availability_hub/internal/app"
	"availability_hub/internal/domain"
	"availability_hub/internal/pricing"
	"availability_hub/internal/shared"
)

// ---------- in-memory stores for the mysql-backed ports ----------

type staticSettings struct{}

func (staticSettings) GetAgentSettings(ctx context.Context, agentID, agencyID int64) (*domain.SettingsOverride, error) {
	visible := true
	return &domain.SettingsOverride{IsSupplierVisible: &visible}, nil
}

func (staticSettings) GetAgencySettings(ctx context.Context, agencyID int64) (*domain.SettingsOverride, error) {
	return nil, nil
}

type staticMappings map[domain.Supplier][]domain.SupplierCode

func (m staticMappings) Resolve(ctx context.Context, htIDs []string) (map[domain.Supplier][]domain.SupplierCode, error) {
	return m, nil
}

type staticDuplicates []domain.DuplicateGroup

func (d staticDuplicates) GetDuplicateGroups(ctx context.Context, pairs []domain.SupplierAccommodation) ([]domain.DuplicateGroup, error) {
	return d, nil
}

type nopEvents struct{}

func (nopEvents) Publish(ctx context.Context, key string, v any) error { return nil }

// ---------- fake supplier backends ----------

func money(amount, cur string) domain.MoneyAmount {
	return domain.MoneyAmount{Amount: decimal.RequireFromString(amount), Currency: domain.Currency(cur)}
}

func set(id uuid.UUID, amount, cur string) domain.RoomContractSet {
	return domain.RoomContractSet{
		ID:   id,
		Rate: domain.Rate{FinalPrice: money(amount, cur), Gross: money(amount, cur), Type: domain.PriceTypeRoomContractSet},
		Rooms: []domain.RoomContract{{
			BoardBasis:   "RO",
			AdultsNumber: 2,
			Rate:         domain.Rate{FinalPrice: money(amount, cur), Gross: money(amount, cur), Type: domain.PriceTypeRoom},
		}},
	}
}

type backend struct {
	accommodationID string
	currency        string
	price           string
	exactFails      bool
	exactHits       atomic.Int32
	langSeen        atomic.Value
}

func (b *backend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.langSeen.Store(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/availabilities/accommodations":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"availabilityId": "av-" + b.accommodationID,
				"results": []any{map[string]any{
					"accommodationId":  b.accommodationID,
					"roomContractSets": []domain.RoomContractSet{set(uuid.New(), b.price, b.currency)},
				}},
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/accommodations/"+b.accommodationID+"/availabilities/"):
			b.exactHits.Add(1)
			if b.exactFails {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"title":"Bad Request","detail":"availability expired"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"roomContractSets": []domain.RoomContractSet{set(uuid.New(), b.price, b.currency)},
			})
		default:
			t.Errorf("unexpected supplier call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// ---------- the test ----------

func TestHTTP_EndToEnd_SearchAndSelect(t *testing.T) {
	alpha := &backend{accommodationID: "al-1", currency: "EUR", price: "100.00"}
	beta := &backend{accommodationID: "be-7", currency: "USD", price: "95.00", exactFails: true}
	alphaSrv := httptest.NewServer(alpha.handler(t))
	defer alphaSrv.Close()
	betaSrv := httptest.NewServer(beta.handler(t))
	defer betaSrv.Close()

	cat := shared.Catalog{
		Suppliers: []shared.SupplierConfig{
			{Code: "alpha", BaseURL: alphaSrv.URL, APIKey: "k", RPS: 50, Enabled: true},
			{Code: "beta", BaseURL: betaSrv.URL, APIKey: "k", RPS: 50, Enabled: true},
		},
		CurrencyRates: map[string]string{"EUR:USD": "1.10"},
	}
	suppliers, err := supplier.FromCatalog(cat, 5*time.Second)
	require.NoError(t, err)
	rates, err := pricing.NewStaticRates(cat.CurrencyRates)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	settings := app.NewSettingsResolver(staticSettings{}, redisad.NewCache(rdb, "settings"), time.Minute,
		app.DefaultSettings([]domain.Supplier{"alpha", "beta"}))
	orch := app.NewOrchestrator(
		settings,
		staticMappings{"alpha": {{HtID: "ht-1", Code: "al-1"}}, "beta": {{HtID: "ht-1", Code: "be-7"}}},
		suppliers,
		redisad.NewResultStore(rdb, 45*time.Minute),
		staticDuplicates{{ReportID: "r-1", Members: []domain.SupplierAccommodation{
			{Supplier: "alpha", AccommodationID: "al-1"}, {Supplier: "beta", AccommodationID: "be-7"},
		}}},
		pricing.NewPipeline(rates, nil, "USD"),
		nopEvents{},
		app.OrchestratorConfig{SupplierTimeout: 5 * time.Second},
	)

	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{Search: orch})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	call := func(method, path, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("X-Agent-Id", "11")
		req.Header.Set("X-Agency-Id", "5")
		req.Header.Set("Accept-Language", "ar")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	checkIn := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
	checkOut := time.Now().UTC().AddDate(0, 1, 3).Format("2006-01-02")
	body := fmt.Sprintf(`{"htIds":["ht-1"],"checkInDate":%q,"checkOutDate":%q,
		"roomDetails":[{"adultsNumber":2}],"nationality":"AE","residency":"AE"}`, checkIn, checkOut)

	res := call(http.MethodPost, "/v1/availabilities/searches", body)
	require.Equal(t, http.StatusAccepted, res.StatusCode)
	var started struct {
		SearchID uuid.UUID `json:"searchId"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&started))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, orch.Wait(ctx))
	assert.Equal(t, "ar", alpha.langSeen.Load())

	res = call(http.MethodGet, "/v1/availabilities/searches/"+started.SearchID.String()+"/state", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var state domain.SearchState
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.Equal(t, domain.TaskCompleted, state.TaskState)

	res = call(http.MethodGet, "/v1/availabilities/searches/"+started.SearchID.String()+"/results", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var results []domain.WideAvailabilityResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&results))
	require.Len(t, results, 2)

	var alphaResult domain.WideAvailabilityResult
	for _, r := range results {
		assert.True(t, r.HasDuplicate)
		require.NotNil(t, r.Supplier)
		if *r.Supplier == "alpha" {
			alphaResult = r
		}
	}
	require.NotEqual(t, uuid.Nil, alphaResult.ID)
	assert.Equal(t, "110", alphaResult.MinPrice.String(), "EUR 100 at 1.10")
	assert.Equal(t, domain.Currency("USD"), alphaResult.RoomContractSets[0].Rate.FinalPrice.Currency)

	// selecting alpha also asks beta, whose failure is tolerated
	res = call(http.MethodGet, fmt.Sprintf("/v1/availabilities/searches/%s/results/%s/room-contract-sets", started.SearchID, alphaResult.ID), "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sets []domain.RoomContractSet
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sets))
	require.Len(t, sets, 1)
	assert.Equal(t, domain.Supplier("alpha"), *sets[0].Supplier)
	assert.EqualValues(t, 1, alpha.exactHits.Load())
	assert.EqualValues(t, 1, beta.exactHits.Load())
}
