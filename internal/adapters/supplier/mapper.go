package supplier

import (
	"strconv"
	"strings"

	"availability_hub/internal/domain"
)

// Suppliers describe the same accommodation with different field names; the
// aliases list the paths tried in order.
var accommodationAliases = map[string][]string{
	"id":       {"id", "accommodationId", "hotel_id", "code"},
	"name":     {"name", "hotel_name", "title"},
	"rating":   {"rating", "stars", "rating.stars", "category"},
	"country":  {"location.country", "country", "countryCode", "country_code", "address.country"},
	"locality": {"location.locality", "locality", "city", "address.city", "town"},
	"address": {
		"location.address", "address", "address_raw", "full_address",
		"address.line", "formatted_address",
	},
	"lat":       {"location.coordinates.latitude", "coordinates.latitude", "latitude", "lat", "location.lat"},
	"lon":       {"location.coordinates.longitude", "coordinates.longitude", "longitude", "lon", "lng", "location.lng"},
	"amenities": {"amenities", "facilities", "accommodationAmenities"},
	"photos":    {"photos", "images", "pictures"},
}

func mapAccommodation(s domain.Supplier, fallbackID string, p map[string]any, raw []byte) domain.AccommodationDetails {
	a := domain.AccommodationDetails{
		Supplier:        s,
		AccommodationID: fallbackID,
		Country:         firstString(p, "country"),
		Locality:        firstString(p, "locality"),
		Address:         firstString(p, "address"),
		Amenities:       firstStrings(p, accommodationAliases["amenities"]...),
		Photos:          firstStrings(p, accommodationAliases["photos"]...),
		RawJSON:         raw,
	}
	if id := firstString(p, "id"); id != nil {
		a.AccommodationID = *id
	}
	if n := firstString(p, "name"); n != nil {
		a.Name = *n
	}
	if f := firstFloat(p, accommodationAliases["rating"]...); f != nil {
		r := int(*f)
		a.Rating = &r
	}
	lat := firstFloat(p, accommodationAliases["lat"]...)
	lon := firstFloat(p, accommodationAliases["lon"]...)
	if lat != nil && lon != nil {
		a.Coords = &domain.Coords{Lat: *lat, Lon: *lon}
	}
	return a
}

// lookup is a nested map lookup with dot paths.
func lookup(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstString returns the first non-empty string (or number) under the alias set.
func firstString(m map[string]any, key string) *string {
	for _, p := range accommodationAliases[key] {
		switch v := lookup(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return &s
			}
		case float64:
			s := strconv.FormatFloat(v, 'f', -1, 64)
			return &s
		}
	}
	return nil
}

// firstFloat accepts numbers and numeric strings like "8,0".
func firstFloat(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookup(m, k).(type) {
		case float64:
			f := v
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstStrings accepts []any of strings or objects with url/src/name.
func firstStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		raw, ok := lookup(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case map[string]any:
				for _, f := range []string{"url", "src", "name"} {
					if u, ok := t[f].(string); ok && u != "" {
						out = append(out, u)
						break
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
