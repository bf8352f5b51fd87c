package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEnricher implements Enricher over the Chat Completions API.
type OpenAIEnricher struct {
	apiKey string
	model  string
	client *openai.Client
}

var ErrOpenAINoAPIKey = errors.New("openai: api key not configured")

// ErrUnsupported marks operations a provider cannot perform.
var ErrUnsupported = errors.New("llm: operation not supported by provider")

func NewOpenAIEnricher(apiKey, model string) *OpenAIEnricher {
	return &OpenAIEnricher{apiKey: strings.TrimSpace(apiKey), model: strings.TrimSpace(model)}
}

func (p *OpenAIEnricher) ensureClient() error {
	if p.apiKey == "" {
		return ErrOpenAINoAPIKey
	}
	if p.client == nil {
		c := openai.NewClient(option.WithAPIKey(p.apiKey))
		p.client = &c
	}
	return nil
}

func (p *OpenAIEnricher) Enrich(ctx context.Context, req EnrichRequest) (EnrichResult, error) {
	if err := p.ensureClient(); err != nil {
		return EnrichResult{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	payload, _ := json.Marshal(req)
	system := "You are a finance enrichment assistant. Given a raw bank or mobile-money " +
		"statement line, identify the merchant and pick the best category from the provided list. " +
		"If known_merchant is set, keep it and only categorize. Return ONLY valid JSON with keys: " +
		"merchant (string), category (string), enriched_info (object with official_name and website, or null)."
	respText, err := p.chat(ctx, system, "Input JSON:\n"+string(payload))
	if err != nil {
		return EnrichResult{}, err
	}
	var out EnrichResult
	if err := decodeModelJSON(respText, &out); err != nil {
		return EnrichResult{}, fmt.Errorf("openai: parse enrich: %w", err)
	}
	return out, nil
}

func (p *OpenAIEnricher) EnrichBatch(ctx context.Context, items []BatchItem, examples []Example) ([]BatchResult, error) {
	if err := p.ensureClient(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	payload, _ := json.Marshal(struct {
		Items    []BatchItem `json:"items"`
		Examples []Example   `json:"examples,omitempty"`
	}{items, examples})
	system := "You are a finance enrichment assistant. For every item, identify the merchant from " +
		"the description (keep known_merchant when set) and categorize it. Return ONLY a valid JSON " +
		"array, one object per item, each with keys: index (echo the input index), merchant (string), " +
		"category (string), enriched_info (object with official_name and website, or null)."
	respText, err := p.chat(ctx, system, "Input JSON:\n"+string(payload))
	if err != nil {
		return nil, err
	}
	var out []BatchResult
	if err := decodeModelJSON(respText, &out); err != nil {
		return nil, fmt.Errorf("openai: parse enrich batch: %w", err)
	}
	return out, nil
}

func (p *OpenAIEnricher) ValidateCategory(ctx context.Context, merchant, category string) (bool, error) {
	if err := p.ensureClient(); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	system := "You are a finance categorization reviewer. Return ONLY valid JSON with a single key: ok (boolean)."
	user := fmt.Sprintf("Is %q a sensible spending category for the merchant %q?", category, merchant)
	respText, err := p.chat(ctx, system, user)
	if err != nil {
		return false, err
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := decodeModelJSON(respText, &out); err != nil {
		return false, fmt.Errorf("openai: parse validate: %w", err)
	}
	return out.OK, nil
}

// ParseStatement needs file input; statement parsing goes through the Gemini
// provider, which accepts inline blobs.
func (p *OpenAIEnricher) ParseStatement(ctx context.Context, data []byte, mimeType string) ([]ParsedRow, error) {
	return nil, ErrUnsupported
}

func (p *OpenAIEnricher) chat(ctx context.Context, system, user string) (string, error) {
	model := p.model
	if model == "" {
		model = "gpt-4o-mini"
	}
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
