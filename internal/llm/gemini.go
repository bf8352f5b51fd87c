package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiEnricher implements Enricher over the Gemini API. It is the only
// provider that parses statement files, via inline blobs.
type GeminiEnricher struct {
	apiKey string
	model  string
}

var ErrGeminiNoAPIKey = errors.New("gemini: api key not configured")

func NewGeminiEnricher(apiKey, model string) *GeminiEnricher {
	return &GeminiEnricher{apiKey: strings.TrimSpace(apiKey), model: strings.TrimSpace(model)}
}

func (p *GeminiEnricher) newClient(ctx context.Context) (*genai.Client, error) {
	if p.apiKey == "" {
		return nil, ErrGeminiNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      p.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

func (p *GeminiEnricher) modelName() string {
	if p.model == "" {
		return "gemini-2.0-flash"
	}
	return p.model
}

func (p *GeminiEnricher) Enrich(ctx context.Context, req EnrichRequest) (EnrichResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	payload, _ := json.Marshal(req)
	prompt := "You are a finance enrichment assistant for bank and mobile-money statement lines.\n" +
		"Identify the merchant in the input description and pick the best category from the list.\n" +
		"If known_merchant is set, keep it and only categorize.\n" +
		"Return ONLY valid raw JSON (no code fences) with keys: merchant (string), category (string), " +
		"enriched_info (object with official_name and website, or null).\n\n" +
		"Input JSON:\n" + string(payload)

	respText, err := p.generate(ctx, prompt, nil)
	if err != nil {
		return EnrichResult{}, err
	}
	var out EnrichResult
	if err := decodeModelJSON(respText, &out); err != nil {
		return EnrichResult{}, fmt.Errorf("gemini: parse enrich: %w", err)
	}
	return out, nil
}

func (p *GeminiEnricher) EnrichBatch(ctx context.Context, items []BatchItem, examples []Example) ([]BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	payload, _ := json.Marshal(struct {
		Items    []BatchItem `json:"items"`
		Examples []Example   `json:"examples,omitempty"`
	}{items, examples})
	prompt := "You are a finance enrichment assistant. For every item, identify the merchant from the\n" +
		"description (keep known_merchant when set) and categorize it.\n" +
		"Return ONLY a valid raw JSON array (no code fences), one object per item, each with keys:\n" +
		"index (echo the input index), merchant (string), category (string), " +
		"enriched_info (object with official_name and website, or null).\n\n" +
		"Input JSON:\n" + string(payload)

	respText, err := p.generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	var out []BatchResult
	if err := decodeModelJSON(respText, &out); err != nil {
		return nil, fmt.Errorf("gemini: parse enrich batch: %w", err)
	}
	return out, nil
}

func (p *GeminiEnricher) ValidateCategory(ctx context.Context, merchant, category string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	prompt := fmt.Sprintf("Is %q a sensible spending category for the merchant %q?\n"+
		"Return ONLY valid raw JSON with a single key: ok (boolean).", category, merchant)
	respText, err := p.generate(ctx, prompt, nil)
	if err != nil {
		return false, err
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := decodeModelJSON(respText, &out); err != nil {
		return false, fmt.Errorf("gemini: parse validate: %w", err)
	}
	return out.OK, nil
}

func (p *GeminiEnricher) ParseStatement(ctx context.Context, data []byte, mimeType string) ([]ParsedRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := "You are a financial statement parser.\n\n" +
		"Task:\n" +
		"- Parse ALL transactions in the attached statement.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a JSON array of objects.\n\n" +
		"Each object must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"- \"description\": string, the raw statement line\n" +
		"- \"amount\": number (positive for money IN, negative for money OUT)\n" +
		"- \"type\": \"income\" for money in, \"expense\" for money out\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"[\" and end with \"]\".\n"

	blob := &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
	respText, err := p.generate(ctx, prompt, blob)
	if err != nil {
		return nil, err
	}
	var rows []ParsedRow
	if err := decodeModelJSON(respText, &rows); err != nil {
		return nil, fmt.Errorf("gemini: parse statement output: %w", err)
	}
	return rows, nil
}

func (p *GeminiEnricher) generate(ctx context.Context, prompt string, blob *genai.Part) (string, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{{Text: prompt}}
	if blob != nil {
		parts = append(parts, blob)
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := client.Models.GenerateContent(ctx, p.modelName(), contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response from model")
	}
	return text, nil
}
