package supplier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAccommodation_AlternativeShape(t *testing.T) {
	raw := []byte(`{"hotel_id": 991, "hotel_name": "  Palm Court ", "stars": "4,0",
		"address": {"city": "Muscat", "country": "OM"}, "lat": 23.58, "lng": "58.4",
		"facilities": ["pool", "spa"], "images": [{"src": "http://img/a.jpg"}]}`)
	var p map[string]any
	require.NoError(t, json.Unmarshal(raw, &p))

	a := mapAccommodation("beta", "fallback", p, raw)

	assert.Equal(t, "991", a.AccommodationID)
	assert.Equal(t, "Palm Court", a.Name)
	require.NotNil(t, a.Rating)
	assert.Equal(t, 4, *a.Rating)
	require.NotNil(t, a.Locality)
	assert.Equal(t, "Muscat", *a.Locality)
	require.NotNil(t, a.Country)
	assert.Equal(t, "OM", *a.Country)
	require.NotNil(t, a.Coords)
	assert.InDelta(t, 58.4, a.Coords.Lon, 1e-9)
	assert.Equal(t, []string{"pool", "spa"}, a.Amenities)
	assert.Equal(t, []string{"http://img/a.jpg"}, a.Photos)
}

func TestMapAccommodation_FallbackID(t *testing.T) {
	a := mapAccommodation("beta", "code-7", map[string]any{"name": "X"}, nil)
	assert.Equal(t, "code-7", a.AccommodationID)
	assert.Nil(t, a.Coords)
	assert.Nil(t, a.Rating)
}
