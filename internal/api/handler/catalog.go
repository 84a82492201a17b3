package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaychia/coinmeme/internal/catalog"
	"github.com/jaychia/coinmeme/internal/domain"
)

// CatalogHandler serves the template and topic listings the front-end uses
// to populate its selection lists.
type CatalogHandler struct {
	catalog *catalog.Catalog
	topics  []domain.Topic
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - cat: loaded template catalog.
//   - topics: topics loaded at startup.
//
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(cat *catalog.Catalog, topics []domain.Topic) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
		topics:  topics,
	}
}

// templateSummary is the list-view shape of a template.
type templateSummary struct {
	Name        string   `json:"name"`
	Explanation string   `json:"explanation,omitempty"`
	Fields      []string `json:"fields"`
}

// ListTemplates handles GET /api/v1/templates.
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	templates := h.catalog.Templates()
	summaries := make([]templateSummary, len(templates))
	for i, t := range templates {
		summaries[i] = templateSummary{
			Name:        t.Name,
			Explanation: t.Explanation,
			Fields:      t.Fields(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": summaries,
		"total":     len(summaries),
	})
}

// GetTemplate handles GET /api/v1/templates/:name.
func (h *CatalogHandler) GetTemplate(c *gin.Context) {
	name := c.Param("name")
	tmpl := h.catalog.Get(name)
	if tmpl == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found: " + name,
		})
		return
	}

	c.JSON(http.StatusOK, tmpl)
}

// ListTopics handles GET /api/v1/topics. An empty topic directory yields an
// empty list, which the front-end shows as "no selectable topics".
func (h *CatalogHandler) ListTopics(c *gin.Context) {
	topics := h.topics
	if topics == nil {
		topics = []domain.Topic{}
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"total":  len(topics),
	})
}
