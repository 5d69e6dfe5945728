package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raymondclowe/RememBot/pkg/types"
)

const classifyPrompt = `You are a librarian assigning Dewey Decimal classification to saved content.

Given the text below, respond with a JSON object containing:
1. "dewey_decimal": the most appropriate three-digit Dewey class as a string (e.g., "005", "641", "910")
2. "subjects": an array of 1-5 short subject labels
3. "confidence" (0.0-1.0): how certain you are of the classification

Text to classify:
%s

Return ONLY the JSON object, no other text.`

// maxPromptChars bounds how much text goes into one classification call
const maxPromptChars = 4000

// OpenRouter classifies text through the OpenRouter chat completions API
type OpenRouter struct {
	client  *http.Client
	model   string
	apiKey  string
	baseURL string
}

// NewOpenRouter creates an LLM classifier. Empty model and baseURL get
// defaults; the API key is required at call time.
func NewOpenRouter(apiKey, model, baseURL string) *OpenRouter {
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api"
	}
	return &OpenRouter{
		client:  &http.Client{Timeout: 60 * time.Second},
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (o *OpenRouter) Classify(ctx context.Context, text string) (types.Blob, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return unclassified()
	}
	if o.apiKey == "" {
		return "", fmt.Errorf("openrouter: no api key configured")
	}
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	raw, err := o.complete(ctx, fmt.Sprintf(classifyPrompt, text))
	if err != nil {
		return "", err
	}

	var view types.TaxonomyView
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &view); err != nil {
		return "", fmt.Errorf("parse llm response: %w", err)
	}
	view.Method = "ai"

	return view.Encode()
}

func (o *OpenRouter) complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.1,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openrouter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openrouter: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openrouter status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openrouter: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

// stripCodeFence unwraps responses the model wrapped in a markdown block
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw[3:], "\n"); idx >= 0 {
			raw = raw[3+idx+1:]
		}
		if strings.HasSuffix(raw, "```") {
			raw = raw[:len(raw)-3]
		}
		raw = strings.TrimSpace(raw)
	}
	return raw
}
