package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"availability_hub/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// Repo backs the settings, mapping, duplicate, markup and accommodation ports.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertAccommodation(ctx context.Context, a domain.AccommodationDetails) error {
	amen, _ := json.Marshal(a.Amenities)
	photos, _ := json.Marshal(a.Photos)
	var lat, lon any
	if a.Coords != nil {
		lat, lon = a.Coords.Lat, a.Coords.Lon
	}
	_, err := r.db.ExecContext(ctx, upsertAccommodationSQL,
		string(a.Supplier),
		a.AccommodationID,
		a.Name,
		valInt(a.Rating),
		valStr(a.Country),
		valStr(a.Locality),
		valStr(a.Address),
		lat, lon,
		string(amen),
		string(photos),
		valJSON(a.RawJSON),
	)
	return err
}

func (r *Repo) GetAccommodation(ctx context.Context, s domain.Supplier, id string) (domain.AccommodationDetails, error) {
	var (
		a                      domain.AccommodationDetails
		supplier               string
		rating                 sql.NullInt64
		country, loc, addr     sql.NullString
		lat, lon               sql.NullFloat64
		amenities, photos, raw []byte
	)
	err := r.db.QueryRowContext(ctx, getAccommodationSQL, string(s), id).Scan(
		&supplier, &a.AccommodationID, &a.Name,
		&rating, &country, &loc, &addr,
		&lat, &lon,
		&amenities, &photos, &raw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AccommodationDetails{}, fmt.Errorf("%w: accommodation %s/%s", domain.ErrNotFound, s, id)
	}
	if err != nil {
		return domain.AccommodationDetails{}, err
	}

	a.Supplier = domain.Supplier(supplier)
	if rating.Valid {
		v := int(rating.Int64)
		a.Rating = &v
	}
	a.Country, a.Locality, a.Address = nullStr(country), nullStr(loc), nullStr(addr)
	if lat.Valid && lon.Valid {
		a.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
	}
	_ = json.Unmarshal(amenities, &a.Amenities)
	_ = json.Unmarshal(photos, &a.Photos)
	if len(raw) > 0 {
		a.RawJSON = raw
	}
	return a, nil
}

func (r *Repo) ListMappedAccommodations(ctx context.Context) ([]domain.SupplierAccommodation, error) {
	rows, err := r.db.QueryContext(ctx, listMappedSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SupplierAccommodation
	for rows.Next() {
		var p domain.SupplierAccommodation
		var s string
		if err := rows.Scan(&s, &p.AccommodationID); err != nil {
			return nil, err
		}
		p.Supplier = domain.Supplier(s)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) LogMiss(ctx context.Context, s domain.Supplier, id string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, string(s), id, status, reason)
	return err
}

func (r *Repo) GetAgentSettings(ctx context.Context, agentID, agencyID int64) (*domain.SettingsOverride, error) {
	return r.settings(ctx, agentSettingsSQL, agentID, agencyID)
}

func (r *Repo) GetAgencySettings(ctx context.Context, agencyID int64) (*domain.SettingsOverride, error) {
	return r.settings(ctx, agencySettingsSQL, agencyID)
}

// settings returns (nil, nil) when no record exists.
func (r *Repo) settings(ctx context.Context, query string, args ...any) (*domain.SettingsOverride, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var o domain.SettingsOverride
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: settings record: %v", domain.ErrDataInvariant, err)
	}
	return &o, nil
}

func (r *Repo) SaveAgentSettings(ctx context.Context, agentID, agencyID int64, o domain.SettingsOverride) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertAgentSettingsSQL, agentID, agencyID, string(b))
	return err
}

func (r *Repo) SaveAgencySettings(ctx context.Context, agencyID int64, o domain.SettingsOverride) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertAgencySettingsSQL, agencyID, string(b))
	return err
}

func (r *Repo) GetPolicies(ctx context.Context, agent domain.Agent) ([]domain.MarkupPolicy, error) {
	rows, err := r.db.QueryContext(ctx, markupPoliciesSQL, agent.AgencyID, agent.AgentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MarkupPolicy
	for rows.Next() {
		var p domain.MarkupPolicy
		var scope string
		var pct decimal.Decimal
		if err := rows.Scan(&p.ID, &scope, &p.ScopeID, &pct); err != nil {
			return nil, err
		}
		p.Scope, p.Percent = domain.MarkupScope(scope), pct
		out = append(out, p)
	}
	return out, rows.Err()
}

// Resolve maps HT ids to the codes each supplier knows them by.
func (r *Repo) Resolve(ctx context.Context, htIDs []string) (map[domain.Supplier][]domain.SupplierCode, error) {
	out := make(map[domain.Supplier][]domain.SupplierCode)
	if len(htIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(htIDs))
	for i, h := range htIDs {
		args[i] = h
	}
	query := mappingsByHtPrefix + placeholders(len(htIDs), "?") + ")\nORDER BY supplier, code"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.SupplierCode
		var s string
		if err := rows.Scan(&c.HtID, &s, &c.Code); err != nil {
			return nil, err
		}
		out[domain.Supplier(s)] = append(out[domain.Supplier(s)], c)
	}
	return out, rows.Err()
}

// GetDuplicateGroups returns every duplicate report containing at least one
// of the pairs, with all of the report's members.
func (r *Repo) GetDuplicateGroups(ctx context.Context, pairs []domain.SupplierAccommodation) ([]domain.DuplicateGroup, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, string(p.Supplier), p.AccommodationID)
	}
	query := duplicateGroupsPrefix + placeholders(len(pairs), "(?,?)") + duplicateGroupsSuffix
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DuplicateGroup
	for rows.Next() {
		var report, s, acc string
		if err := rows.Scan(&report, &s, &acc); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ReportID != report {
			out = append(out, domain.DuplicateGroup{ReportID: report})
		}
		g := &out[len(out)-1]
		g.Members = append(g.Members, domain.SupplierAccommodation{Supplier: domain.Supplier(s), AccommodationID: acc})
	}
	return out, rows.Err()
}

func placeholders(n int, one string) string {
	return strings.TrimSuffix(strings.Repeat(one+",", n), ",")
}

// Open connects and pings; the DSN must enable parseTime.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
