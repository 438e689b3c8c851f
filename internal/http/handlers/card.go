package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	"github.com/yuehanlin/biblegraph-backend/internal/http/response"
	"github.com/yuehanlin/biblegraph-backend/internal/services"
)

type CardHandler struct {
	cardService services.CardService
}

func NewCardHandler(cardService services.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

func cardIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("card id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func cardFiltersFromQuery(c *gin.Context) (graph.CardFilters, bool) {
	var filters graph.CardFilters
	if book := c.Query("book"); book != "" {
		filters.Book = &book
	}
	chapter, ok := optionalIntQuery(c, "chapter")
	if !ok {
		return graph.CardFilters{}, false
	}
	filters.Chapter = chapter
	verse, ok := optionalIntQuery(c, "verse")
	if !ok {
		return graph.CardFilters{}, false
	}
	filters.Verse = verse
	if cardType := c.Query("type"); cardType != "" {
		filters.Type = &cardType
	}
	return filters, true
}

// POST /api/cards
func (ch *CardHandler) Create(c *gin.Context) {
	var req services.CreateCardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	card, err := ch.cardService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"card": card})
}

// GET /api/cards?book=&chapter=&verse=&type=
func (ch *CardHandler) ListOwn(c *gin.Context) {
	filters, ok := cardFiltersFromQuery(c)
	if !ok {
		return
	}
	cards, err := ch.cardService.ListOwn(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cards": cards})
}

// GET /api/cards/:id
func (ch *CardHandler) Get(c *gin.Context) {
	id, ok := cardIDFromPath(c)
	if !ok {
		return
	}
	card, err := ch.cardService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"card": card})
}

// PUT /api/cards/:id
func (ch *CardHandler) Update(c *gin.Context) {
	id, ok := cardIDFromPath(c)
	if !ok {
		return
	}
	var req services.UpdateCardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	card, err := ch.cardService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"card": card})
}

// DELETE /api/cards/:id
func (ch *CardHandler) Delete(c *gin.Context) {
	id, ok := cardIDFromPath(c)
	if !ok {
		return
	}
	if err := ch.cardService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/verses/:book/:chapter/:verse/cards
func (ch *CardHandler) ListByVerse(c *gin.Context) {
	ref, ok := verseRefFromPath(c)
	if !ok {
		return
	}
	cards, err := ch.cardService.ListByVerse(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cards": cards})
}
