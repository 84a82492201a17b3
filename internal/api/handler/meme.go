package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaychia/coinmeme/internal/catalog"
	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/logger"
	"github.com/jaychia/coinmeme/internal/render"
	"github.com/jaychia/coinmeme/internal/service"
)

// MemeHandler drives the caption-and-render pipeline behind the meme
// generation endpoints.
type MemeHandler struct {
	catalog  *catalog.Catalog
	topics   []domain.Topic
	captions *service.CaptionService
	renderer *render.Renderer
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - cat: loaded template catalog.
//   - topics: topics loaded at startup.
//   - captions: caption generation service.
//   - renderer: text overlay renderer.
//
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(cat *catalog.Catalog, topics []domain.Topic, captions *service.CaptionService, renderer *render.Renderer) *MemeHandler {
	return &MemeHandler{
		catalog:  cat,
		topics:   topics,
		captions: captions,
		renderer: renderer,
	}
}

// generateRequest is the request body for both generation endpoints.
type generateRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Template string `json:"template" binding:"required"`
}

// Generate handles POST /api/v1/memes. It runs the full pipeline and
// responds with the finished JPEG as a download.
func (h *MemeHandler) Generate(c *gin.Context) {
	topic, tmpl, ok := h.resolve(c)
	if !ok {
		return
	}

	set, err := h.captions.Generate(c.Request.Context(), topic, tmpl)
	if err != nil {
		h.captionError(c, err)
		return
	}

	meme, err := h.renderer.Render(tmpl, set)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to render meme: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to render meme image",
		})
		return
	}
	meme.Topic = topic.Title

	logger.CtxInfo(c.Request.Context(), "Generated meme %s (%d bytes)", meme.Filename(), len(meme.Data))

	c.Header("Content-Disposition", `attachment; filename="`+meme.Filename()+`"`)
	c.Data(http.StatusOK, "image/jpeg", meme.Data)
}

// Preview handles POST /api/v1/memes/preview. It generates captions without
// rendering, so callers can inspect or edit the text first.
func (h *MemeHandler) Preview(c *gin.Context) {
	topic, tmpl, ok := h.resolve(c)
	if !ok {
		return
	}

	set, err := h.captions.Generate(c.Request.Context(), topic, tmpl)
	if err != nil {
		h.captionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":    topic.Title,
		"template": tmpl.Name,
		"captions": set.Captions,
	})
}

// resolve parses the request body and looks up the named topic and template.
// It writes the error response itself and returns ok=false on failure.
func (h *MemeHandler) resolve(c *gin.Context) (*domain.Topic, *domain.Template, bool) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return nil, nil, false
	}

	var topic *domain.Topic
	for i := range h.topics {
		if h.topics[i].Title == req.Topic {
			topic = &h.topics[i]
			break
		}
	}
	if topic == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Topic not found: " + req.Topic,
		})
		return nil, nil, false
	}

	tmpl := h.catalog.Get(req.Template)
	if tmpl == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found: " + req.Template,
		})
		return nil, nil, false
	}

	return topic, tmpl, true
}

// captionError maps caption generation failures to HTTP responses.
func (h *MemeHandler) captionError(c *gin.Context, err error) {
	logger.CtxError(c.Request.Context(), "Failed to generate captions: %v", err)

	if errors.Is(err, domain.ErrMissingCredential) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Caption service is not configured",
		})
		return
	}

	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Caption generation failed: " + genErr.Reason,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Caption generation failed",
	})
}
