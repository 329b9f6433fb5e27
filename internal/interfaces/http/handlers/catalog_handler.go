package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// CatalogReader is the read side of the reaction catalog.
type CatalogReader interface {
	List(category string) []catalog.Entry
	Get(id string) (catalog.Entry, bool)
	Categories() []string
	Source() string
}

// CatalogListing is the body of GET /api/reactions.
type CatalogListing struct {
	Source     string          `json:"source"`
	Categories []string        `json:"categories"`
	Reactions  []catalog.Entry `json:"reactions"`
}

// CatalogHandler serves the reaction catalog.
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(c CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// RegisterRoutes mounts the endpoints on rg.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reactions", h.List)
	rg.GET("/reactions/:id", h.Get)
}

// List handles GET /api/reactions?category=.
func (h *CatalogHandler) List(c *gin.Context) {
	entries := h.catalog.List(c.Query("category"))
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeData(c, CatalogListing{
		Source:     h.catalog.Source(),
		Categories: h.catalog.Categories(),
		Reactions:  entries,
	})
}

// Get handles GET /api/reactions/:id.
func (h *CatalogHandler) Get(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.catalog.Get(id)
	if !ok {
		writeAppError(c, errors.Newf(errors.ErrCodeCatalogEntryNotFound, "unknown reaction id %q", id))
		return
	}
	writeData(c, entry)
}

//Personal.AI order the ending
