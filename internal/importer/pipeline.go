package importer

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

// VerseWriter is the slice of the graph layer the pipeline writes
// through.
type VerseWriter interface {
	InitSchema(ctx context.Context) error
	UpsertVerse(ctx context.Context, v *domain.Verse) error
	LinkVerses(ctx context.Context, from, to domain.VerseRef) (bool, error)
}

// Stats summarizes one import run.
type Stats struct {
	Books         int64
	BooksSkipped  int64
	Verses        int64
	EdgesCreated  int64
	EdgesExisting int64
	EdgeFailures  int64
}

// Pipeline imports a parsed document in two strictly sequential passes:
// every verse is materialized before any cross-reference is linked,
// because linking requires both endpoints to exist. Within a pass,
// books run in parallel; all writes are merge-by-key, so sibling order
// does not matter.
type Pipeline struct {
	graph   VerseWriter
	log     *logger.Logger
	workers int
}

func NewPipeline(graph VerseWriter, log *logger.Logger, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		graph:   graph,
		log:     log.With("component", "ImportPipeline"),
		workers: workers,
	}
}

// Run imports the document. Schema setup failure and an unusable
// document abort the run before any writes; a malformed book is logged
// and skipped; a failed edge write is counted and the pass continues.
func (p *Pipeline) Run(ctx context.Context, doc *Document) (*Stats, error) {
	if doc == nil || len(doc.Books) == 0 {
		return nil, fmt.Errorf("import: empty document: %w", pkgerrors.ErrPrecondition)
	}
	if err := p.graph.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	stats := &Stats{}
	books := make([]bookData, 0, len(doc.Books))
	for _, raw := range doc.Books {
		book, err := resolveBook(raw)
		if err != nil {
			stats.BooksSkipped++
			p.log.Warn("Skipping malformed book", "book", raw.Name, "error", err)
			continue
		}
		books = append(books, book)
	}
	stats.Books = int64(len(books))

	p.log.Info("Materializing verses", "books", len(books), "workers", p.workers)
	var verses int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, book := range books {
		book := book
		g.Go(func() error {
			n, err := p.materializeBook(gctx, book)
			atomic.AddInt64(&verses, n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import: materialize verses: %w", err)
	}
	stats.Verses = verses

	p.log.Info("Linking cross-references", "books", len(books))
	var created, existing, failed int64
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, book := range books {
		book := book
		g.Go(func() error {
			c, e, f, err := p.linkBook(gctx, book)
			atomic.AddInt64(&created, c)
			atomic.AddInt64(&existing, e)
			atomic.AddInt64(&failed, f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import: link cross-references: %w", err)
	}
	stats.EdgesCreated = created
	stats.EdgesExisting = existing
	stats.EdgeFailures = failed

	p.log.Info("Import finished",
		"books", stats.Books,
		"books_skipped", stats.BooksSkipped,
		"verses", stats.Verses,
		"edges_created", stats.EdgesCreated,
		"edges_existing", stats.EdgesExisting,
		"edge_failures", stats.EdgeFailures,
	)
	return stats, nil
}

// materializeBook writes every verse of one book in document order. A
// failed write abandons the rest of the book; earlier verses stay, the
// run continues with other books.
func (p *Pipeline) materializeBook(ctx context.Context, book bookData) (int64, error) {
	var written int64
	for _, chapter := range book.chapters {
		for _, verse := range chapter.verses {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			v := &domain.Verse{
				Book:       book.name,
				BookNumber: book.number,
				Chapter:    chapter.number,
				Verse:      verse.number,
				Text:       verse.text,
			}
			if err := p.graph.UpsertVerse(ctx, v); err != nil {
				p.log.Warn("Abandoning book after verse write failure",
					"book", book.name,
					"chapter", chapter.number,
					"verse", verse.number,
					"error", err,
				)
				return written, nil
			}
			written++
		}
	}
	return written, nil
}

// linkBook creates the reading-order edges of one book: verse N-1 to
// verse N within a chapter, and chapter C-1 verse 1 to chapter C verse
// 1 across chapter boundaries.
func (p *Pipeline) linkBook(ctx context.Context, book bookData) (created, existing, failed int64, err error) {
	link := func(from, to domain.VerseRef) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, linkErr := p.graph.LinkVerses(ctx, from, to)
		if linkErr != nil {
			failed++
			p.log.Warn("Cross-reference creation failed",
				"from", from,
				"to", to,
				"error", linkErr,
			)
			return nil
		}
		if ok {
			created++
		} else {
			existing++
		}
		return nil
	}

	for _, chapter := range book.chapters {
		for _, verse := range chapter.verses {
			ref := domain.VerseRef{Book: book.name, Chapter: chapter.number, Verse: verse.number}
			if verse.number > 1 {
				prev := domain.VerseRef{Book: book.name, Chapter: chapter.number, Verse: verse.number - 1}
				if err := link(prev, ref); err != nil {
					return created, existing, failed, err
				}
			}
			if chapter.number > 1 && verse.number == 1 {
				prev := domain.VerseRef{Book: book.name, Chapter: chapter.number - 1, Verse: 1}
				if err := link(prev, ref); err != nil {
					return created, existing, failed, err
				}
			}
		}
	}
	return created, existing, failed, nil
}
