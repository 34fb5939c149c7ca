package supplier

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"availability_hub/internal/adapters/observability"
	"availability_hub/internal/domain"
)

const maxAttempts = 4

type Client struct {
	code domain.Supplier
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

type Options struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Burst   int
	Timeout time.Duration
}

func New(code domain.Supplier, o Options) (*Client, error) {
	if code == "" || o.BaseURL == "" {
		return nil, fmt.Errorf("supplier code and base URL are required")
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Burst <= 0 {
		o.Burst = int(o.RPS)
		if o.Burst < 1 {
			o.Burst = 1
		}
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	return &Client{
		code: code,
		base: strings.TrimRight(o.BaseURL, "/"),
		hc:   &http.Client{Timeout: o.Timeout},
		key:  o.APIKey,
		rl:   rate.NewLimiter(rate.Limit(o.RPS), o.Burst),
	}, nil
}

func (c *Client) GetAvailability(ctx context.Context, req domain.AvailabilityRequest) (domain.SupplierAvailability, error) {
	var out availabilityResponseDTO
	if err := c.do(ctx, http.MethodPost, "availability", "/availabilities/accommodations", toAvailabilityRequest(req), &out, true); err != nil {
		return domain.SupplierAvailability{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) GetExactAvailability(ctx context.Context, req domain.ExactAvailabilityRequest) (domain.ExactAvailability, error) {
	path := fmt.Sprintf("/accommodations/%s/availabilities/%s", url.PathEscape(req.AccommodationID), url.PathEscape(req.AvailabilityID))
	var out exactAvailabilityDTO
	if err := c.do(ctx, http.MethodGet, "exact_availability", path, nil, &out, true); err != nil {
		return domain.ExactAvailability{}, err
	}
	if out.AvailabilityID == "" {
		out.AvailabilityID = req.AvailabilityID
	}
	if out.AccommodationID == "" {
		out.AccommodationID = req.AccommodationID
	}
	return domain.ExactAvailability(out), nil
}

func (c *Client) GetAccommodation(ctx context.Context, accommodationID string) (domain.AccommodationDetails, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "accommodation", "/accommodations/"+url.PathEscape(accommodationID), nil, &raw, true); err != nil {
		return domain.AccommodationDetails{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.AccommodationDetails{}, &domain.SupplierError{Supplier: c.code, Status: http.StatusOK, Detail: "decode accommodation: " + err.Error()}
	}
	return mapAccommodation(c.code, accommodationID, payload, raw), nil
}

func (c *Client) GetDeadline(ctx context.Context, availabilityID, roomContractSetID string) (domain.Deadline, error) {
	// availability ids are unique per supplier, so the accommodation segment is a wildcard
	path := fmt.Sprintf("/accommodations/-/availabilities/%s/room-contract-sets/%s/deadline",
		url.PathEscape(availabilityID), url.PathEscape(roomContractSetID))
	var out domain.Deadline
	if err := c.do(ctx, http.MethodGet, "deadline", path, nil, &out, true); err != nil {
		return domain.Deadline{}, err
	}
	return out, nil
}

// Book is never retried: a lost response must not create a second booking.
func (c *Client) Book(ctx context.Context, req domain.BookingRequest) (domain.BookingDetails, error) {
	body := bookingRequestDTO(req)
	var out bookingResponseDTO
	if err := c.do(ctx, http.MethodPost, "book", "/bookings", body, &out, false); err != nil {
		return domain.BookingDetails{}, err
	}
	return domain.BookingDetails(out), nil
}

func (c *Client) Cancel(ctx context.Context, referenceCode string) error {
	return c.do(ctx, http.MethodPost, "cancel", "/bookings/"+url.PathEscape(referenceCode)+"/cancel", nil, nil, true)
}

// do sends one JSON request with client-side rate limiting and, when retry is
// set, up to maxAttempts tries on network errors, 429 and transient 5xx,
// honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out any, retry bool) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}

	attempts := 1
	if retry {
		attempts = maxAttempts
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		c.setHeaders(ctx, req, in != nil)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(string(c.code), endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &domain.SupplierError{Supplier: c.code, Detail: err.Error()}
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(string(c.code), endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return &domain.SupplierError{Supplier: c.code, Status: resp.StatusCode, Detail: "decode response: " + err.Error()}
			}
			return nil

		case retryable(resp.StatusCode):
			wait := retryAfter(resp)
			lastErr = c.problem(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, c.problem(resp))

		default:
			return c.problem(resp)
		}
	}
	return lastErr
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", domain.Language(ctx))
	req.Header.Set("User-Agent", "availability-hub/1.0")
	if id := domain.CorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-Id", id)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// problem reads a problem+json body into a SupplierError and closes the body.
func (c *Client) problem(resp *http.Response) error {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	e := &domain.SupplierError{Supplier: c.code, Status: resp.StatusCode}
	var p problemDTO
	if json.Unmarshal(b, &p) == nil && (p.Detail != "" || p.Title != "") {
		e.Detail = p.Detail
		if e.Detail == "" {
			e.Detail = p.Title
		}
		return e
	}
	e.Detail = strings.TrimSpace(string(b))
	if e.Detail == "" {
		e.Detail = http.StatusText(resp.StatusCode)
	}
	return e
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// IsNotFound reports whether the supplier answered 404.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
