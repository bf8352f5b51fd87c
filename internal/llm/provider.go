// Package llm defines the remote enrichment contract and its provider
// implementations. Providers identify and categorize merchants from raw
// statement text and parse whole statement files; everything else in the
// system treats their failures as recoverable.
package llm

import "context"

// Enricher is the remote enrichment/parsing contract consumed by services.
type Enricher interface {
	// Enrich resolves one description to a merchant and category.
	Enrich(ctx context.Context, req EnrichRequest) (EnrichResult, error)
	// EnrichBatch resolves many descriptions in a single round-trip.
	// Implementations must echo each item's Index on its result.
	EnrichBatch(ctx context.Context, items []BatchItem, examples []Example) ([]BatchResult, error)
	// ValidateCategory checks whether category is a sensible label for
	// merchant. Non-critical; callers give it a single attempt.
	ValidateCategory(ctx context.Context, merchant, category string) (bool, error)
	// ParseStatement extracts transaction rows from a statement file.
	ParseStatement(ctx context.Context, data []byte, mimeType string) ([]ParsedRow, error)
}

// EnrichRequest is one description to resolve. KnownMerchant, when set,
// biases the task toward categorize-only rather than identify+categorize.
type EnrichRequest struct {
	Description   string    `json:"description"`
	KnownMerchant string    `json:"known_merchant,omitempty"`
	Categories    []string  `json:"categories"`
	Examples      []Example `json:"examples,omitempty"`
}

// Example is a learned categorization shown to the model.
type Example struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// EnrichedInfo carries optional officially-resolved merchant details.
type EnrichedInfo struct {
	OfficialName string `json:"official_name,omitempty"`
	Website      string `json:"website,omitempty"`
}

// EnrichResult is a successful single-item resolution.
type EnrichResult struct {
	Merchant string        `json:"merchant"`
	Category string        `json:"category"`
	Info     *EnrichedInfo `json:"enriched_info,omitempty"`
}

// BatchItem is one unresolved description in a batch. Index is caller-owned
// and opaque to the provider.
type BatchItem struct {
	Index         int    `json:"index"`
	Description   string `json:"description"`
	CacheKey      string `json:"cache_key"`
	KnownMerchant string `json:"known_merchant,omitempty"`
}

// BatchResult is one resolved batch item, carrying its caller-supplied Index.
type BatchResult struct {
	Index    int           `json:"index"`
	Merchant string        `json:"merchant"`
	Category string        `json:"category"`
	Info     *EnrichedInfo `json:"enriched_info,omitempty"`
}

// ParsedRow is one transaction extracted from a statement file.
type ParsedRow struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"` // positive in, negative out
	Type        string  `json:"type"`   // expense | income
}
