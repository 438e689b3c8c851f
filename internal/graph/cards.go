package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

// CardRepo persists knowledge cards. A card hangs off its owner via
// CREATED and off exactly one verse via REFERENCES; both edges are
// written in the same transaction as the card node.
type CardRepo interface {
	Create(ctx context.Context, card *domain.KnowledgeCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters CardFilters) ([]*domain.KnowledgeCard, error)
	ListByVerse(ctx context.Context, ref domain.VerseRef, requesterID string) ([]*domain.KnowledgeCard, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, set map[string]any) (*domain.KnowledgeCard, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

type cardRepo struct {
	store *Store
	log   *logger.Logger
}

func NewCardRepo(store *Store, log *logger.Logger) CardRepo {
	return &cardRepo{
		store: store,
		log:   log.With("repo", "Card"),
	}
}

// Create writes the card node plus its ownership and verse edges
// atomically. The owner and the verse must already exist; when either is
// missing nothing is written and the transaction reports no row.
func (r *cardRepo) Create(ctx context.Context, card *domain.KnowledgeCard) error {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	tags := card.Tags
	if tags == nil {
		tags = []string{}
	}
	params := map[string]any{
		"owner_id":   card.OwnerID.String(),
		"book":       card.Verse.Book,
		"chapter":    card.Verse.Chapter,
		"verse":      card.Verse.Verse,
		"id":         card.ID.String(),
		"title":      card.Title,
		"content":    card.Content,
		"tags":       tags,
		"type":       string(card.Type),
		"is_public":  card.IsPublic,
		"created_at": card.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": card.UpdatedAt.Format(time.RFC3339Nano),
	}

	linked, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $owner_id})
			MATCH (v:Verse {book: $book, chapter: $chapter, verse: $verse})
			CREATE (c:KnowledgeCard {
				id: $id,
				title: $title,
				content: $content,
				tags: $tags,
				type: $type,
				is_public: $is_public,
				created_at: $created_at,
				updated_at: $updated_at
			})
			CREATE (u)-[:CREATED]->(c)
			CREATE (c)-[:REFERENCES]->(v)
			RETURN c.id AS id`, params)
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return true, res.Err()
		}
		return false, res.Err()
	})
	if err != nil {
		return r.store.wrapWriteErr("create card", err)
	}
	if ok, _ := linked.(bool); !ok {
		return fmt.Errorf("create card: owner or verse missing: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *cardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error) {
	p := Pattern{
		match:   "(u:User)-[:CREATED]->(c:KnowledgeCard {id: $id})-[:REFERENCES]->(v:Verse)",
		returns: cardReturns,
		extra:   map[string]any{"id": id.String()},
	}
	rows, err := r.store.FindPattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return cardFromRow(rows[0]), nil
}

func (r *cardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters CardFilters) ([]*domain.KnowledgeCard, error) {
	p := BuildCardListingQuery(ownerID.String(), filters)
	rows, err := r.store.FindPattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cardsFromRows(rows), nil
}

func (r *cardRepo) ListByVerse(ctx context.Context, ref domain.VerseRef, requesterID string) ([]*domain.KnowledgeCard, error) {
	p := BuildVerseCardsQuery(ref.Book, ref.Chapter, ref.Verse, requesterID)
	rows, err := r.store.FindPattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list verse cards: %w", err)
	}
	return cardsFromRows(rows), nil
}

// Update applies the given property set to the card, scoped to its
// owner. It returns the updated card, or nil when no card matched the
// (owner, id) pair.
func (r *cardRepo) Update(ctx context.Context, ownerID, id uuid.UUID, set map[string]any) (*domain.KnowledgeCard, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	params := map[string]any{
		"owner_id": ownerID.String(),
		"id":       id.String(),
		"set":      set,
	}
	row, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $owner_id})-[:CREATED]->(c:KnowledgeCard {id: $id})-[:REFERENCES]->(v:Verse)
			SET c += $set
			RETURN `+cardReturns, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		record := res.Record()
		out := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			val, _ := record.Get(key)
			out[key] = val
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, r.store.wrapWriteErr("update card", err)
	}
	props, ok := row.(map[string]any)
	if !ok || props == nil {
		return nil, nil
	}
	return cardFromRow(props), nil
}

// Delete removes the card and all of its edges, scoped to its owner. It
// reports whether a card was actually deleted.
func (r *cardRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	params := map[string]any{
		"owner_id": ownerID.String(),
		"id":       id.String(),
	}
	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $owner_id})-[:CREATED]->(c:KnowledgeCard {id: $id})
			DETACH DELETE c`, params)
		if err != nil {
			return false, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return false, err
		}
		return summary.Counters().NodesDeleted() > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	ok, _ := deleted.(bool)
	return ok, nil
}

func cardFromRow(row map[string]any) *domain.KnowledgeCard {
	return &domain.KnowledgeCard{
		ID:        getUUIDFromMap(row, "id"),
		Title:     getStringFromMap(row, "title", ""),
		Content:   getStringFromMap(row, "content", ""),
		Tags:      getStringsFromMap(row, "tags"),
		Type:      domain.CardType(getStringFromMap(row, "type", "")),
		IsPublic:  getBoolFromMap(row, "is_public", false),
		CreatedAt: getTimeFromMap(row, "created_at"),
		UpdatedAt: getTimeFromMap(row, "updated_at"),
		OwnerID:   getUUIDFromMap(row, "owner_id"),
		Verse: domain.VerseRef{
			Book:    getStringFromMap(row, "book", ""),
			Chapter: getIntFromMap(row, "chapter", 0),
			Verse:   getIntFromMap(row, "verse", 0),
		},
	}
}

func cardsFromRows(rows []map[string]any) []*domain.KnowledgeCard {
	cards := make([]*domain.KnowledgeCard, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, cardFromRow(row))
	}
	return cards
}
