package service

import (
	"context"

	"github.com/wachira/pesaflow/internal/database/repository"
	"github.com/wachira/pesaflow/internal/enrichcache"
	"github.com/wachira/pesaflow/internal/heuristic"
	"github.com/wachira/pesaflow/internal/llm"
	"github.com/wachira/pesaflow/internal/logger"
	"github.com/wachira/pesaflow/internal/rules"
)

// Fallback values when every resolution layer fails.
const (
	UnknownMerchant  = "Unknown"
	FallbackCategory = "Other"
)

// Enrichment sources, in cascade order.
const (
	SourceRules    = "rules"
	SourceCache    = "cache"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// EnrichmentService resolves merchant and category for raw transaction
// descriptions through a four-layer cascade: pattern extraction, category
// rule table, enrichment cache, remote model. Only the remote layer costs a
// network call, and only its successes mutate the cache.
type EnrichmentService struct {
	Transactions *repository.TransactionRepo
	Cache        *enrichcache.Cache
	Provider     llm.Enricher
	Updates      *MerchantUpdates
	Categories   []string
}

// Enrichment is the outcome for one transaction. Index echoes the caller's
// position so batched results can be scattered back regardless of ordering.
type Enrichment struct {
	Index    int
	Merchant string
	Category string
	Info     *llm.EnrichedInfo
	Source   string
}

// Enrich resolves a single transaction. A transaction that already carries a
// category is returned untouched: user edits always win. Failures degrade to
// {Unknown, Other}; this path never returns an error.
func (s *EnrichmentService) Enrich(ctx context.Context, tx repository.Transaction, examples []llm.Example) repository.Transaction {
	if tx.Category != nil && *tx.Category != "" {
		return tx
	}
	e := s.resolve(ctx, 0, tx.Description, examples)
	applyEnrichment(&tx, e)
	return tx
}

// resolve runs the cascade for one description.
func (s *EnrichmentService) resolve(ctx context.Context, index int, description string, examples []llm.Example) Enrichment {
	h := heuristic.ExtractMerchant(description)

	// Layer 2: rule table on the extracted merchant. A hit returns
	// immediately; cache and remote are never consulted.
	if h.Found {
		if cat := rules.CategoryFor(h.Merchant); cat != "" {
			return Enrichment{Index: index, Merchant: h.Merchant, Category: cat, Source: SourceRules}
		}
	}

	// Layer 3: cache. The heuristic name is fresher than the cached one
	// for display, so it wins when both exist.
	if cached, ok := s.Cache.Get(h.CacheKey); ok {
		merchant := cached.Merchant
		if h.Found {
			merchant = h.Merchant
		}
		return Enrichment{Index: index, Merchant: merchant, Category: cached.Category, Info: cacheInfo(cached), Source: SourceCache}
	}

	// Layer 4: remote, with bounded retry.
	var result llm.EnrichResult
	err := llm.Retry(ctx, llm.DefaultAttempts, llm.DefaultRetryDelay, func() error {
		var callErr error
		result, callErr = s.Provider.Enrich(ctx, llm.EnrichRequest{
			Description:   description,
			KnownMerchant: h.Merchant,
			Categories:    s.Categories,
			Examples:      examples,
		})
		return callErr
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("cache_key", h.CacheKey).Msg("remote enrichment failed, degrading")
		merchant := h.Merchant
		if merchant == "" {
			merchant = UnknownMerchant
		}
		return Enrichment{Index: index, Merchant: merchant, Category: FallbackCategory, Source: SourceFallback}
	}

	e := s.acceptRemote(ctx, index, h, result)
	return e
}

// acceptRemote sanitizes a remote result, writes it through the cache, and
// publishes the merchant update.
func (s *EnrichmentService) acceptRemote(ctx context.Context, index int, h heuristic.Result, result llm.EnrichResult) Enrichment {
	merchant := result.Merchant
	if h.Found {
		merchant = h.Merchant
	}
	if merchant == "" {
		merchant = UnknownMerchant
	}

	category := result.Category
	if category == "" {
		category = FallbackCategory
	} else if !s.knownCategory(category) {
		// Off-list categories get one non-critical validation attempt.
		ok, err := s.Provider.ValidateCategory(ctx, merchant, category)
		if err == nil && !ok {
			category = FallbackCategory
		}
	}

	data := enrichcache.EnrichedData{Merchant: merchant, Category: category}
	if result.Info != nil {
		data.Info = &enrichcache.EnrichedInfo{OfficialName: result.Info.OfficialName, Website: result.Info.Website}
	}
	if err := s.Cache.Set(h.CacheKey, data); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("enrichment cache write failed")
	}
	if s.Updates != nil {
		s.Updates.Publish(MerchantUpdate{CacheKey: h.CacheKey, Merchant: merchant, Category: category})
	}
	return Enrichment{Index: index, Merchant: merchant, Category: category, Info: result.Info, Source: SourceRemote}
}

// EnrichBatch resolves many descriptions with at most one remote round-trip.
// Every outcome carries the caller-supplied index of its input. A failed
// remote call degrades each unresolved item individually; the batch itself
// never fails.
func (s *EnrichmentService) EnrichBatch(ctx context.Context, descriptions []string, examples []llm.Example) []Enrichment {
	out := make([]Enrichment, len(descriptions))
	var pending []llm.BatchItem
	pendingHeuristics := make(map[int]heuristic.Result)

	for i, desc := range descriptions {
		h := heuristic.ExtractMerchant(desc)
		if h.Found {
			if cat := rules.CategoryFor(h.Merchant); cat != "" {
				out[i] = Enrichment{Index: i, Merchant: h.Merchant, Category: cat, Source: SourceRules}
				continue
			}
		}
		if cached, ok := s.Cache.Get(h.CacheKey); ok {
			merchant := cached.Merchant
			if h.Found {
				merchant = h.Merchant
			}
			out[i] = Enrichment{Index: i, Merchant: merchant, Category: cached.Category, Info: cacheInfo(cached), Source: SourceCache}
			continue
		}
		pending = append(pending, llm.BatchItem{Index: i, Description: desc, CacheKey: h.CacheKey, KnownMerchant: h.Merchant})
		pendingHeuristics[i] = h
	}

	if len(pending) == 0 {
		return out
	}

	var results []llm.BatchResult
	err := llm.Retry(ctx, llm.DefaultAttempts, llm.DefaultRetryDelay, func() error {
		var callErr error
		results, callErr = s.Provider.EnrichBatch(ctx, pending, examples)
		return callErr
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("items", len(pending)).Msg("batch enrichment failed, degrading")
		for _, item := range pending {
			merchant := item.KnownMerchant
			if merchant == "" {
				merchant = UnknownMerchant
			}
			out[item.Index] = Enrichment{Index: item.Index, Merchant: merchant, Category: FallbackCategory, Source: SourceFallback}
		}
		return out
	}

	resolved := make(map[int]bool, len(results))
	for _, r := range results {
		h, ok := pendingHeuristics[r.Index]
		if !ok {
			// Provider invented an index; ignore it.
			continue
		}
		out[r.Index] = s.acceptRemote(ctx, r.Index, h, llm.EnrichResult{Merchant: r.Merchant, Category: r.Category, Info: r.Info})
		resolved[r.Index] = true
	}
	// Items the provider dropped degrade like a failed call.
	for _, item := range pending {
		if resolved[item.Index] {
			continue
		}
		merchant := item.KnownMerchant
		if merchant == "" {
			merchant = UnknownMerchant
		}
		out[item.Index] = Enrichment{Index: item.Index, Merchant: merchant, Category: FallbackCategory, Source: SourceFallback}
	}
	return out
}

// EnrichUncategorized enriches every stored transaction without a category
// and persists the results. Returns the number of transactions updated.
func (s *EnrichmentService) EnrichUncategorized(ctx context.Context) (int, error) {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{Uncategorized: true, ExcludeXfers: true})
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}

	history, err := s.Transactions.List(ctx, repository.TransactionFilters{ExcludeXfers: true})
	if err != nil {
		return 0, err
	}

	descriptions := make([]string, len(txs))
	for i, tx := range txs {
		descriptions[i] = tx.Description
	}
	examples := SelectExamplesForBatch(history, descriptions, maxExamples)

	updated := 0
	for _, e := range s.EnrichBatch(ctx, descriptions, examples) {
		tx := txs[e.Index]
		merchant := e.Merchant
		category := e.Category
		if err := s.Transactions.UpdateEnrichment(ctx, tx.ID, &merchant, &category); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// BackfillMerchant applies a published merchant update to every stored
// transaction whose description resolves to the update's cache key. Cache
// keys come out of the extractor, not the raw text, so rows that differ only
// in trailing noise (timestamps, card numbers) all match. Returns the number
// of rows updated.
func (s *EnrichmentService) BackfillMerchant(ctx context.Context, u MerchantUpdate) (int64, error) {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, tx := range txs {
		if heuristic.ExtractMerchant(tx.Description).CacheKey == u.CacheKey {
			ids = append(ids, tx.ID)
		}
	}
	merchant, category := u.Merchant, u.Category
	return s.Transactions.ApplyEnrichment(ctx, ids, &merchant, &category)
}

func (s *EnrichmentService) knownCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func applyEnrichment(tx *repository.Transaction, e Enrichment) {
	merchant := e.Merchant
	category := e.Category
	tx.MerchantName = &merchant
	tx.Category = &category
}

func cacheInfo(d enrichcache.EnrichedData) *llm.EnrichedInfo {
	if d.Info == nil {
		return nil
	}
	return &llm.EnrichedInfo{OfficialName: d.Info.OfficialName, Website: d.Info.Website}
}
