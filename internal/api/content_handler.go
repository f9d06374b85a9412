package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-backend-go/internal/content"
	"quillpost-backend-go/internal/models"
)

// ContentHandler serves template-generated drafts and title ideas.
type ContentHandler struct {
	generator *content.Generator
}

func NewContentHandler(generator *content.Generator) *ContentHandler {
	return &ContentHandler{generator: generator}
}

// GenerateContent handles POST /content/generate.
func (h *ContentHandler) GenerateContent(c *gin.Context) {
	var req models.GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	html := h.generator.GenerateBlogContent(req.Title, req.PrimaryKeywords, req.SecondaryKeywords)
	c.JSON(http.StatusOK, ContentResponse{Content: html})
}

// SuggestTitles handles POST /content/titles.
func (h *ContentHandler) SuggestTitles(c *gin.Context) {
	var req models.TitleSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, TitlesResponse{Titles: h.generator.GenerateTitleSuggestions(req.Keywords)})
}
