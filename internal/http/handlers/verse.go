package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	"github.com/yuehanlin/biblegraph-backend/internal/http/response"
	"github.com/yuehanlin/biblegraph-backend/internal/services"
)

type VerseHandler struct {
	verseService services.VerseService
}

func NewVerseHandler(verseService services.VerseService) *VerseHandler {
	return &VerseHandler{verseService: verseService}
}

// verseRefFromPath reads :book/:chapter/:verse route params. It writes the
// 400 response itself so handlers only branch on the ok flag.
func verseRefFromPath(c *gin.Context) (domain.VerseRef, bool) {
	chapter, err := strconv.Atoi(c.Param("chapter"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("chapter must be an integer"))
		return domain.VerseRef{}, false
	}
	verse, err := strconv.Atoi(c.Param("verse"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("verse must be an integer"))
		return domain.VerseRef{}, false
	}
	return domain.VerseRef{Book: c.Param("book"), Chapter: chapter, Verse: verse}, true
}

// optionalIntQuery parses an optional integer query parameter, writing the
// 400 response on a malformed value.
func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("%s must be an integer", name))
		return nil, false
	}
	return &parsed, true
}

// GET /api/verses/:book/:chapter/:verse
func (vh *VerseHandler) GetVerse(c *gin.Context) {
	ref, ok := verseRefFromPath(c)
	if !ok {
		return
	}
	verse, err := vh.verseService.Get(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, verse)
}

// GET /api/cross-references/:book/:chapter/:verse
func (vh *VerseHandler) CrossReferences(c *gin.Context) {
	ref, ok := verseRefFromPath(c)
	if !ok {
		return
	}
	verses, err := vh.verseService.CrossReferences(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, verses)
}

// GET /api/graph-data?book=&chapter=&verse=&limit=
func (vh *VerseHandler) GraphData(c *gin.Context) {
	var filters graph.SubgraphFilters
	if book := c.Query("book"); book != "" {
		filters.Book = &book
	}
	chapter, ok := optionalIntQuery(c, "chapter")
	if !ok {
		return
	}
	filters.Chapter = chapter
	verse, ok := optionalIntQuery(c, "verse")
	if !ok {
		return
	}
	filters.Verse = verse

	limit := 0
	if rawLimit, ok := optionalIntQuery(c, "limit"); !ok {
		return
	} else if rawLimit != nil {
		limit = *rawLimit
	}

	edges, err := vh.verseService.GraphData(c.Request.Context(), filters, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, edges)
}
