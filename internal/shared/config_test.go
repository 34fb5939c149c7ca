package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"availability_hub/internal/shared"
)

const catalogYAML = `
suppliers:
  - code: alpha
    base_url: http://alpha.local
    api_key: k1
    rps: 3
    timeout: 5s
    enabled: true
  - code: beta
    base_url: http://beta.local
    enabled: false
currency_rates:
  "EUR:USD": "1.10"
`

func TestLoad_DefaultsAndCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	t.Setenv("CATALOG_PATH", path)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SUPPLIER_TIMEOUT", "12s")

	cfg, err := shared.Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.SearchTTL)
	assert.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
	assert.Equal(t, 12*time.Second, cfg.SupplierTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "USD", cfg.TargetCurrency)

	require.Len(t, cfg.Catalog.Suppliers, 2)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Suppliers[0].Timeout)
	assert.Equal(t, []string{"alpha"}, cfg.Catalog.DefaultSuppliers())
	assert.Equal(t, "1.10", cfg.Catalog.CurrencyRates["EUR:USD"])
}

func TestLoadCatalog_MissingFileIsEmpty(t *testing.T) {
	cat, err := shared.LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cat.Suppliers)
}

func TestLoadCatalog_RejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.yaml")
	body := "suppliers:\n  - {code: a, base_url: http://a}\n  - {code: a, base_url: http://b}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := shared.LoadCatalog(path)
	assert.Error(t, err)
}
