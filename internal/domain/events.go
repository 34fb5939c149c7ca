package domain

const EventSupplierSearchFinished = "supplier_search_finished"

// SupplierSearchFinished is emitted once per supplier task, keyed by search id.
type SupplierSearchFinished struct {
	Type       string `json:"type"`
	SearchID   string `json:"search_id"`
	Supplier   string `json:"supplier"`
	State      string `json:"state"`
	Results    int    `json:"results"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
