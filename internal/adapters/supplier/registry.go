package supplier

import (
	"fmt"
	"sort"
	"time"

	"availability_hub/internal/domain"
	"availability_hub/internal/shared"
)

// Registry resolves supplier codes to clients.
type Registry struct {
	clients map[domain.Supplier]domain.SupplierClient
	order   []domain.Supplier
}

func NewRegistry(clients map[domain.Supplier]domain.SupplierClient) *Registry {
	r := &Registry{clients: clients}
	for s := range clients {
		r.order = append(r.order, s)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r
}

// FromCatalog builds one HTTP client per catalog entry. fallbackTimeout
// applies to entries without their own timeout.
func FromCatalog(cat shared.Catalog, fallbackTimeout time.Duration) (*Registry, error) {
	clients := make(map[domain.Supplier]domain.SupplierClient, len(cat.Suppliers))
	for _, sc := range cat.Suppliers {
		timeout := sc.Timeout
		if timeout <= 0 {
			timeout = fallbackTimeout
		}
		c, err := New(domain.Supplier(sc.Code), Options{
			BaseURL: sc.BaseURL,
			APIKey:  sc.APIKey,
			RPS:     sc.RPS,
			Burst:   sc.Burst,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("supplier %s: %w", sc.Code, err)
		}
		clients[domain.Supplier(sc.Code)] = c
	}
	return NewRegistry(clients), nil
}

func (r *Registry) Client(s domain.Supplier) (domain.SupplierClient, bool) {
	c, ok := r.clients[s]
	return c, ok
}

func (r *Registry) Suppliers() []domain.Supplier {
	return append([]domain.Supplier(nil), r.order...)
}
