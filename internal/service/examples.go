package service

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/wachira/pesaflow/internal/database/repository"
	"github.com/wachira/pesaflow/internal/llm"
)

const maxExamples = 8

// SelectExamples picks up to limit categorized transactions whose
// descriptions are closest (by edit distance) to description, for use as
// few-shot examples in remote enrichment. Duplicated descriptions collapse
// to their most recent categorization.
func SelectExamples(history []repository.Transaction, description string, limit int) []llm.Example {
	return SelectExamplesForBatch(history, []string{description}, limit)
}

// SelectExamplesForBatch is SelectExamples over a whole batch: each candidate
// is scored by its distance to the nearest description in the set, so every
// item contributes its own closest precedents to the shared example list.
func SelectExamplesForBatch(history []repository.Transaction, descriptions []string, limit int) []llm.Example {
	if limit <= 0 {
		limit = maxExamples
	}
	targets := make([]string, len(descriptions))
	for i, d := range descriptions {
		targets[i] = strings.ToLower(d)
	}

	seen := make(map[string]bool)
	type scored struct {
		ex   llm.Example
		dist int
	}
	var candidates []scored
	for _, tx := range history {
		if tx.Category == nil || *tx.Category == "" {
			continue
		}
		key := strings.ToLower(tx.Description)
		if seen[key] {
			continue
		}
		seen[key] = true
		best := -1
		for _, target := range targets {
			if d := levenshtein.ComputeDistance(target, key); best == -1 || d < best {
				best = d
			}
		}
		candidates = append(candidates, scored{
			ex:   llm.Example{Description: tx.Description, Category: *tx.Category},
			dist: best,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]llm.Example, len(candidates))
	for i, c := range candidates {
		out[i] = c.ex
	}
	return out
}
