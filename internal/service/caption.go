package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/logger"
	"github.com/jaychia/coinmeme/internal/prompts"
)

// CaptionService generates caption text for template slots using an
// OpenAI-compatible chat completion API.
type CaptionService struct {
	client      *resty.Client
	model       string
	apiKey      string
	endpoint    string
	temperature float32
	maxTokens   int
	maxRetries  int
}

// CaptionConfig holds configuration for the caption service.
type CaptionConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// NewCaptionService creates a new caption service.
// Parameters:
//   - cfg: caption configuration including model, API key, and retry bound.
//
// Returns:
//   - *CaptionService: initialized caption client wrapper.
func NewCaptionService(cfg *CaptionConfig) *CaptionService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Finite timeout so a slow API call cannot hang a request forever.
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.8
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &CaptionService{
		client:      client,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		endpoint:    baseURL + "/chat/completions",
		temperature: temperature,
		maxTokens:   maxTokens,
		maxRetries:  maxRetries,
	}
}

// GetModel returns the model name being used.
func (s *CaptionService) GetModel() string {
	return s.model
}

// HasCredential reports whether an API key is configured.
func (s *CaptionService) HasCredential() bool {
	return s.apiKey != ""
}

// Generate produces one caption per template slot for the given topic.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - topic: topic seeding the captions.
//   - template: template whose slot count the output must match.
//
// Returns:
//   - *domain.CaptionSet: captions in slot order, length equal to the
//     template's slot count.
//   - error: domain.ErrMissingCredential when no API key is configured, or a
//     *domain.GenerationError on network failure, malformed response, or
//     slot mismatch. Never returns a mismatched caption set.
func (s *CaptionService) Generate(ctx context.Context, topic *domain.Topic, template *domain.Template) (*domain.CaptionSet, error) {
	if !s.HasCredential() {
		return nil, fmt.Errorf("caption generation unavailable: %w", domain.ErrMissingCredential)
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.CaptionSystemPrompt},
			{Role: "user", Content: prompts.BuildCaptionPrompt(topic, template)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			logger.CtxWarn(ctx, "Retrying caption generation for template %s (attempt %d/%d): %v",
				template.Name, attempt+1, s.maxRetries+1, lastErr)
		}

		set, retryable, err := s.generateOnce(ctx, template, &req)
		if err == nil {
			return set, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}

	if genErr, ok := lastErr.(*domain.GenerationError); ok {
		return nil, genErr
	}
	return nil, &domain.GenerationError{Template: template.Name, Reason: "request failed", Err: lastErr}
}

// generateOnce issues a single API call and parses the result. The second
// return value reports whether the failure is worth retrying.
func (s *CaptionService) generateOnce(ctx context.Context, template *domain.Template, req *chatRequest) (*domain.CaptionSet, bool, error) {
	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, true, &domain.GenerationError{
			Template: template.Name,
			Reason:   "failed to call caption API",
			Err:      err,
		}
	}

	status := httpResp.StatusCode()
	if status < 200 || status >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", status)
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", status, resp.Error.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", status, string(httpResp.Body()))
		}
		// Server-side and rate-limit failures are transient; client errors
		// (bad key, bad request) will not improve on retry.
		retryable := status >= 500 || status == 429
		return nil, retryable, &domain.GenerationError{
			Template: template.Name,
			Reason:   "caption API returned error",
			Err:      fmt.Errorf("%s", errorMsg),
		}
	}

	if resp.Error != nil {
		return nil, false, &domain.GenerationError{
			Template: template.Name,
			Reason:   "caption API error",
			Err:      fmt.Errorf("%s", resp.Error.Message),
		}
	}
	if len(resp.Choices) == 0 {
		return nil, true, &domain.GenerationError{
			Template: template.Name,
			Reason:   fmt.Sprintf("no choices in response (status: %d)", status),
		}
	}

	set, err := parseCaptionContent(resp.Choices[0].Message.Content, template)
	if err != nil {
		// A malformed or mismatched completion may succeed on a fresh sample.
		return nil, true, err
	}
	return set, false, nil
}

// parseCaptionContent decodes the model output into an ordered caption set.
// The model is asked for a bare JSON object; markdown code fences are
// stripped before decoding since some models add them anyway.
func parseCaptionContent(content string, template *domain.Template) (*domain.CaptionSet, error) {
	raw := stripCodeFences(content)

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, &domain.GenerationError{
			Template: template.Name,
			Reason:   "response is not a JSON object of captions",
			Err:      err,
		}
	}

	if len(fields) != len(template.Slots) {
		return nil, &domain.GenerationError{
			Template: template.Name,
			Reason: fmt.Sprintf("slot count mismatch: template has %d slots, response has %d fields",
				len(template.Slots), len(fields)),
		}
	}

	set := &domain.CaptionSet{Template: template.Name}
	for _, slot := range template.Slots {
		text, ok := fields[slot.Field]
		if !ok {
			return nil, &domain.GenerationError{
				Template: template.Name,
				Reason:   fmt.Sprintf("response is missing field %q", slot.Field),
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, &domain.GenerationError{
				Template: template.Name,
				Reason:   fmt.Sprintf("response has empty caption for field %q", slot.Field),
			}
		}
		set.Captions = append(set.Captions, domain.Caption{Field: slot.Field, Text: text})
	}

	return set, nil
}

// stripCodeFences removes a surrounding markdown code block, if present.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}
