package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

// GraphCache is an optional read-through cache for subgraph responses.
// A nil cache disables caching; cache failures never fail the request.
type GraphCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type VerseService interface {
	Get(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error)
	CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error)
	GraphData(ctx context.Context, filters graph.SubgraphFilters, limit int) ([]domain.CrossReference, error)
}

type verseService struct {
	log       *logger.Logger
	verseRepo graph.VerseRepo
	cache     GraphCache
}

func NewVerseService(log *logger.Logger, verseRepo graph.VerseRepo, cache GraphCache) VerseService {
	return &verseService{
		log:       log.With("service", "VerseService"),
		verseRepo: verseRepo,
		cache:     cache,
	}
}

func validateVerseRef(ref domain.VerseRef) error {
	if strings.TrimSpace(ref.Book) == "" || ref.Chapter < 1 || ref.Verse < 1 {
		return fmt.Errorf("book, chapter and verse are required: %w", pkgerrors.ErrValidation)
	}
	return nil
}

func (vs *verseService) Get(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error) {
	if err := validateVerseRef(ref); err != nil {
		return nil, err
	}
	verse, err := vs.verseRepo.GetVerse(ctx, ref)
	if err != nil {
		return nil, err
	}
	if verse == nil {
		return nil, fmt.Errorf("verse %s %d:%d: %w", ref.Book, ref.Chapter, ref.Verse, pkgerrors.ErrNotFound)
	}
	return verse, nil
}

// CrossReferences lists the verses directly referenced by ref. A verse
// with no outgoing references yields an empty list, not an error.
func (vs *verseService) CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error) {
	if err := validateVerseRef(ref); err != nil {
		return nil, err
	}
	return vs.verseRepo.CrossReferences(ctx, ref)
}

// GraphData returns the filtered cross-reference subgraph. On a freshly
// initialized store it first seeds the demonstration graph, so the
// default view is never empty; a failed seed is logged and the query
// proceeds. Results are cached per filter set when a cache is wired.
func (vs *verseService) GraphData(ctx context.Context, filters graph.SubgraphFilters, limit int) ([]domain.CrossReference, error) {
	if limit <= 0 || limit > graph.DefaultSubgraphLimit {
		limit = graph.DefaultSubgraphLimit
	}
	key := subgraphCacheKey(filters, limit)
	if vs.cache != nil {
		raw, ok, err := vs.cache.Get(ctx, key)
		if err != nil {
			vs.log.Warn("Graph cache read failed", "key", key, "error", err)
		} else if ok {
			var cached []domain.CrossReference
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			vs.log.Warn("Dropping unreadable graph cache entry", "key", key)
		}
	}

	if _, err := vs.verseRepo.SeedIfEmpty(ctx); err != nil {
		vs.log.Warn("Demonstration seed failed, continuing with query", "error", err)
	}

	refs, err := vs.verseRepo.Subgraph(ctx, filters, limit)
	if err != nil {
		return nil, err
	}
	if vs.cache != nil {
		if raw, err := json.Marshal(refs); err == nil {
			if err := vs.cache.Set(ctx, key, raw); err != nil {
				vs.log.Warn("Graph cache write failed", "key", key, "error", err)
			}
		}
	}
	return refs, nil
}

func subgraphCacheKey(f graph.SubgraphFilters, limit int) string {
	book, chapter, verse := "*", "*", "*"
	if f.Book != nil {
		book = *f.Book
	}
	if f.Chapter != nil {
		chapter = strconv.Itoa(*f.Chapter)
	}
	if f.Verse != nil {
		verse = strconv.Itoa(*f.Verse)
	}
	return fmt.Sprintf("graph:subgraph:%s:%s:%s:%d", book, chapter, verse, limit)
}
