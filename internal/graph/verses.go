package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

// VerseRepo is the verse-level view over the graph store. Verses are
// identified by (book, chapter, verse); REFERENCES edges between them
// form the cross-reference graph.
type VerseRepo interface {
	InitSchema(ctx context.Context) error
	UpsertVerse(ctx context.Context, v *domain.Verse) error
	EnsureVerse(ctx context.Context, ref domain.VerseRef, text string) error
	LinkVerses(ctx context.Context, from, to domain.VerseRef) (bool, error)
	GetVerse(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error)
	CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error)
	Subgraph(ctx context.Context, filters SubgraphFilters, limit int) ([]domain.CrossReference, error)
	CountVerses(ctx context.Context) (int64, error)
	SeedIfEmpty(ctx context.Context) (bool, error)
}

type verseRepo struct {
	store *Store
	log   *logger.Logger
}

func NewVerseRepo(store *Store, log *logger.Logger) VerseRepo {
	return &verseRepo{
		store: store,
		log:   log.With("repo", "Verse"),
	}
}

func verseKey(ref domain.VerseRef) map[string]any {
	return map[string]any{
		"book":    ref.Book,
		"chapter": ref.Chapter,
		"verse":   ref.Verse,
	}
}

func (r *verseRepo) InitSchema(ctx context.Context) error {
	return r.store.InitSchema(ctx)
}

func (r *verseRepo) UpsertVerse(ctx context.Context, v *domain.Verse) error {
	key := verseKey(domain.VerseRef{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse})
	attrs := map[string]any{
		"book_number": v.BookNumber,
		"text":        v.Text,
	}
	return r.store.UpsertNode(ctx, "Verse", key, attrs)
}

// EnsureVerse creates the verse if it does not exist yet. An existing
// verse keeps its stored text; the caller's text only applies on create.
func (r *verseRepo) EnsureVerse(ctx context.Context, ref domain.VerseRef, text string) error {
	attrs := map[string]any{}
	if text != "" {
		attrs["text"] = text
	}
	return r.store.UpsertNode(ctx, "Verse", verseKey(ref), attrs)
}

func (r *verseRepo) LinkVerses(ctx context.Context, from, to domain.VerseRef) (bool, error) {
	return r.store.CreateEdge(ctx, "REFERENCES", "Verse", verseKey(from), "Verse", verseKey(to))
}

func (r *verseRepo) GetVerse(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error) {
	props, err := r.store.FindNode(ctx, "Verse", verseKey(ref))
	if err != nil {
		return nil, err
	}
	if props == nil {
		return nil, nil
	}
	return verseFromProps(props), nil
}

// CrossReferences returns the verses directly referenced by ref,
// following outgoing REFERENCES edges one hop.
func (r *verseRepo) CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error) {
	p := Pattern{
		match:   "(v1:Verse {book: $book, chapter: $chapter, verse: $verse})-[:REFERENCES]->(v2:Verse)",
		returns: "v2.book AS book, v2.book_number AS book_number, v2.chapter AS chapter, v2.verse AS verse, v2.text AS text",
		extra:   verseKey(ref),
	}
	rows, err := r.store.FindPattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("cross references: %w", err)
	}
	verses := make([]*domain.Verse, 0, len(rows))
	for _, row := range rows {
		verses = append(verses, verseFromProps(row))
	}
	return verses, nil
}

// Subgraph returns cross-reference edges matching the filters. Each
// filter matches when either endpoint satisfies it.
func (r *verseRepo) Subgraph(ctx context.Context, filters SubgraphFilters, limit int) ([]domain.CrossReference, error) {
	p := BuildSubgraphQuery(filters, limit)
	rows, err := r.store.FindPattern(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("subgraph: %w", err)
	}
	refs := make([]domain.CrossReference, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, domain.CrossReference{
			SourceBook:    getStringFromMap(row, "source_book", ""),
			SourceChapter: getIntFromMap(row, "source_chapter", 0),
			SourceVerse:   getIntFromMap(row, "source_verse", 0),
			TargetBook:    getStringFromMap(row, "target_book", ""),
			TargetChapter: getIntFromMap(row, "target_chapter", 0),
			TargetVerse:   getIntFromMap(row, "target_verse", 0),
		})
	}
	return refs, nil
}

func (r *verseRepo) CountVerses(ctx context.Context) (int64, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (v:Verse) RETURN count(v) AS count", nil)
	if err != nil {
		return 0, fmt.Errorf("count verses: %w", err)
	}
	if result.Next(ctx) {
		if val, ok := result.Record().Get("count"); ok {
			if n, ok := val.(int64); ok {
				return n, nil
			}
		}
	}
	if err := result.Err(); err != nil {
		return 0, fmt.Errorf("count verses: %w", err)
	}
	return 0, nil
}

func verseFromProps(props map[string]any) *domain.Verse {
	return &domain.Verse{
		Book:       getStringFromMap(props, "book", ""),
		BookNumber: getIntFromMap(props, "book_number", 0),
		Chapter:    getIntFromMap(props, "chapter", 0),
		Verse:      getIntFromMap(props, "verse", 0),
		Text:       getStringFromMap(props, "text", ""),
	}
}
