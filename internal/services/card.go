package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/requestdata"
)

type CardVerseInput struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

func (in CardVerseInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Book, validation.Required),
		validation.Field(&in.Chapter, validation.Required, validation.Min(1)),
		validation.Field(&in.Verse, validation.Required, validation.Min(1)),
	)
}

type CreateCardInput struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Tags     []string       `json:"tags"`
	Type     string         `json:"type"`
	IsPublic bool           `json:"is_public"`
	Verse    CardVerseInput `json:"verse"`
}

func (in CreateCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Type, validation.Required, validation.In(cardTypeValues()...)),
		validation.Field(&in.Verse, validation.Required),
	)
}

// UpdateCardInput carries a partial update: nil fields stay untouched.
// Ownership and the verse reference are immutable and have no slot
// here.
type UpdateCardInput struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Type    *string   `json:"type"`
}

func (in UpdateCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(1, 200)),
		validation.Field(&in.Type, validation.In(cardTypeValues()...)),
	)
}

func cardTypeValues() []interface{} {
	types := domain.CardTypes()
	out := make([]interface{}, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

type CardService interface {
	Create(ctx context.Context, in CreateCardInput) (*domain.KnowledgeCard, error)
	ListOwn(ctx context.Context, filters graph.CardFilters) ([]*domain.KnowledgeCard, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error)
	ListByVerse(ctx context.Context, ref domain.VerseRef) ([]*domain.KnowledgeCard, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateCardInput) (*domain.KnowledgeCard, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cardService struct {
	log       *logger.Logger
	cardRepo  graph.CardRepo
	verseRepo graph.VerseRepo
}

func NewCardService(log *logger.Logger, cardRepo graph.CardRepo, verseRepo graph.VerseRepo) CardService {
	return &cardService{
		log:       log.With("service", "CardService"),
		cardRepo:  cardRepo,
		verseRepo: verseRepo,
	}
}

// Create validates the payload, ensures the referenced verse exists as
// an explicit create-if-absent step, then writes the card with both of
// its edges in one transaction.
func (cs *cardService) Create(ctx context.Context, in CreateCardInput) (*domain.KnowledgeCard, error) {
	ownerID := requestdata.UserID(ctx)
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user: %w", pkgerrors.ErrUnauthorized)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Verse.Book = strings.TrimSpace(in.Verse.Book)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, pkgerrors.ErrValidation)
	}

	ref := domain.VerseRef{Book: in.Verse.Book, Chapter: in.Verse.Chapter, Verse: in.Verse.Verse}
	if err := cs.verseRepo.EnsureVerse(ctx, ref, in.Verse.Text); err != nil {
		return nil, fmt.Errorf("ensure verse: %w", err)
	}

	now := time.Now().UTC()
	card := &domain.KnowledgeCard{
		ID:        uuid.New(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		Type:      domain.CardType(in.Type),
		IsPublic:  in.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
		OwnerID:   ownerID,
		Verse:     ref,
	}
	if err := cs.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}
	cs.log.Info("Knowledge card created", "card_id", card.ID, "owner_id", ownerID)
	return card, nil
}

func (cs *cardService) ListOwn(ctx context.Context, filters graph.CardFilters) ([]*domain.KnowledgeCard, error) {
	ownerID := requestdata.UserID(ctx)
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user: %w", pkgerrors.ErrUnauthorized)
	}
	if err := validateCardFilters(filters); err != nil {
		return nil, err
	}
	return cs.cardRepo.ListByOwner(ctx, ownerID, filters)
}

// Get returns one card, subject to the visibility rule: the owner sees
// their own cards, everyone else only public ones. Absent and foreign
// private cards are indistinguishable.
func (cs *cardService) Get(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error) {
	card, err := cs.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	requester := requestdata.UserID(ctx)
	if card == nil || (!card.IsPublic && card.OwnerID != requester) {
		return nil, fmt.Errorf("card %s: %w", id, pkgerrors.ErrNotFoundOrForbidden)
	}
	return card, nil
}

// ListByVerse lists the visible cards attached to one verse: public
// ones, plus the requester's own when the caller is authenticated.
func (cs *cardService) ListByVerse(ctx context.Context, ref domain.VerseRef) ([]*domain.KnowledgeCard, error) {
	if err := validateVerseRef(ref); err != nil {
		return nil, err
	}
	requester := ""
	if id := requestdata.UserID(ctx); id != uuid.Nil {
		requester = id.String()
	}
	return cs.cardRepo.ListByVerse(ctx, ref, requester)
}

// Update applies the supplied fields and always refreshes updated_at.
func (cs *cardService) Update(ctx context.Context, id uuid.UUID, in UpdateCardInput) (*domain.KnowledgeCard, error) {
	ownerID := requestdata.UserID(ctx)
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user: %w", pkgerrors.ErrUnauthorized)
	}
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, pkgerrors.ErrValidation)
	}

	set := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Content != nil {
		set["content"] = *in.Content
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}
	if in.Type != nil {
		set["type"] = *in.Type
	}

	card, err := cs.cardRepo.Update(ctx, ownerID, id, set)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("card %s: %w", id, pkgerrors.ErrNotFoundOrForbidden)
	}
	return card, nil
}

func (cs *cardService) Delete(ctx context.Context, id uuid.UUID) error {
	ownerID := requestdata.UserID(ctx)
	if ownerID == uuid.Nil {
		return fmt.Errorf("no authenticated user: %w", pkgerrors.ErrUnauthorized)
	}
	deleted, err := cs.cardRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("card %s: %w", id, pkgerrors.ErrNotFoundOrForbidden)
	}
	cs.log.Info("Knowledge card deleted", "card_id", id, "owner_id", ownerID)
	return nil
}

func validateCardFilters(f graph.CardFilters) error {
	if f.Type != nil && !domain.CardType(*f.Type).Valid() {
		return fmt.Errorf("unknown card type %q: %w", *f.Type, pkgerrors.ErrValidation)
	}
	if f.Chapter != nil && *f.Chapter < 1 {
		return fmt.Errorf("chapter must be positive: %w", pkgerrors.ErrValidation)
	}
	if f.Verse != nil && *f.Verse < 1 {
		return fmt.Errorf("verse must be positive: %w", pkgerrors.ErrValidation)
	}
	return nil
}
