package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/prompts"
)

// Size limits enforced on model-proposed slot boxes, in normalized units.
const (
	annotateMinWidth  = 0.2
	annotateMaxWidth  = 0.8
	annotateMinHeight = 0.05
	annotateMaxHeight = 0.2
)

// AnnotatorService proposes slot bounding boxes for template images using a
// vision-capable chat model. It is an offline catalog maintenance tool, not
// part of the generation path.
type AnnotatorService struct {
	client   *resty.Client
	model    string
	apiKey   string
	endpoint string
}

// AnnotatorConfig holds configuration for the annotator service.
type AnnotatorConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewAnnotatorService creates a new annotator service.
// Parameters:
//   - cfg: annotator configuration including vision model and API key.
//
// Returns:
//   - *AnnotatorService: initialized annotator client wrapper.
func NewAnnotatorService(cfg *AnnotatorConfig) *AnnotatorService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &AnnotatorService{
		client:   client,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		endpoint: baseURL + "/chat/completions",
	}
}

// Annotate asks the vision model to place one text box per slot of the
// template on the given image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - template: template whose slots need boxes.
//   - imageData: raw template image bytes.
//   - format: image format extension (jpg, png).
//   - width, height: image dimensions in pixels.
//
// Returns:
//   - map[string]domain.Box: proposed box per slot field, clamped to the
//     allowed size range and kept fully in frame.
//   - error: domain.ErrMissingCredential without an API key, otherwise a
//     wrapped API or parse error.
func (s *AnnotatorService) Annotate(ctx context.Context, template *domain.Template, imageData []byte, format string, width, height int) (map[string]domain.Box, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("slot annotation unavailable: %w", domain.ErrMissingCredential)
	}

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	dataURL := fmt.Sprintf("data:%s;base64,%s", getMIMEType(format), base64Image)

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []interface{}{
					textContent{
						Type: "text",
						Text: prompts.BuildAnnotationPrompt(template, width, height),
					},
					imageContent{
						Type: "image_url",
						ImageURL: imageURLSpec{
							URL:    dataURL,
							Detail: "high", // box placement needs full-resolution inspection
						},
					},
				},
			},
		},
		MaxTokens:   1000,
		Temperature: 0.1,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call annotation API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("annotation API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("annotation API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from annotation API (status: %d)", httpResp.StatusCode())
	}

	return parseAnnotation(resp.Choices[0].Message.Content, template)
}

// parseAnnotation decodes the model output and sanitizes each proposed box.
// Fields the template does not declare are dropped.
func parseAnnotation(content string, template *domain.Template) (map[string]domain.Box, error) {
	raw := stripCodeFences(content)

	var proposed map[string]domain.Box
	if err := json.Unmarshal([]byte(raw), &proposed); err != nil {
		return nil, fmt.Errorf("annotation response is not a JSON object of boxes: %w", err)
	}

	boxes := make(map[string]domain.Box, len(template.Slots))
	for _, slot := range template.Slots {
		box, ok := proposed[slot.Field]
		if !ok {
			return nil, fmt.Errorf("annotation response is missing field %q", slot.Field)
		}
		boxes[slot.Field] = sanitizeBox(box)
	}
	return boxes, nil
}

// sanitizeBox enforces the size limits and keeps the box fully in frame.
func sanitizeBox(b domain.Box) domain.Box {
	b.Width = max(annotateMinWidth, min(annotateMaxWidth, b.Width))
	b.Height = max(annotateMinHeight, min(annotateMaxHeight, b.Height))
	return b.Clamp()
}
