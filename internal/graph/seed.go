package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
)

// seedVerses is the demonstration slice of the graph: the opening five
// verses of 创世记, chained by REFERENCES edges in reading order. It is
// written only when the graph holds no verses at all, so a real import
// is never touched.
var seedVerses = []domain.Verse{
	{Book: "创世记", Chapter: 1, Verse: 1, Text: "起初，神创造天地。"},
	{Book: "创世记", Chapter: 1, Verse: 2, Text: "地是空虚混沌，渊面黑暗；神的灵运行在水面上。"},
	{Book: "创世记", Chapter: 1, Verse: 3, Text: "神说：「要有光」，就有了光。"},
	{Book: "创世记", Chapter: 1, Verse: 4, Text: "神看光是好的，就把光暗分开了。"},
	{Book: "创世记", Chapter: 1, Verse: 5, Text: "神称光为「昼」，称暗为「夜」。有晚上，有早晨，这是头一日。"},
}

func seedEdges() []domain.CrossReference {
	edges := make([]domain.CrossReference, 0, len(seedVerses)-1)
	for i := 1; i < len(seedVerses); i++ {
		prev, cur := seedVerses[i-1], seedVerses[i]
		edges = append(edges, domain.CrossReference{
			SourceBook:    prev.Book,
			SourceChapter: prev.Chapter,
			SourceVerse:   prev.Verse,
			TargetBook:    cur.Book,
			TargetChapter: cur.Chapter,
			TargetVerse:   cur.Verse,
		})
	}
	return edges
}

// SeedIfEmpty populates the demonstration verses when the graph is
// empty. It reports whether seeding ran. The write is a single
// transaction, so a concurrent import never observes half a seed.
func (r *verseRepo) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := r.CountVerses(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	verseParams := make([]map[string]any, 0, len(seedVerses))
	for _, v := range seedVerses {
		verseParams = append(verseParams, map[string]any{
			"book":    v.Book,
			"chapter": v.Chapter,
			"verse":   v.Verse,
			"text":    v.Text,
		})
	}
	edgeParams := make([]map[string]any, 0, len(seedVerses)-1)
	for _, e := range seedEdges() {
		edgeParams = append(edgeParams, map[string]any{
			"from_book":    e.SourceBook,
			"from_chapter": e.SourceChapter,
			"from_verse":   e.SourceVerse,
			"to_book":      e.TargetBook,
			"to_chapter":   e.TargetChapter,
			"to_verse":     e.TargetVerse,
		})
	}

	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			UNWIND $verses AS row
			MERGE (v:Verse {book: row.book, chapter: row.chapter, verse: row.verse})
			ON CREATE SET v.text = row.text`,
			map[string]any{"verses": verseParams})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			UNWIND $edges AS row
			MATCH (a:Verse {book: row.from_book, chapter: row.from_chapter, verse: row.from_verse})
			MATCH (b:Verse {book: row.to_book, chapter: row.to_chapter, verse: row.to_verse})
			MERGE (a)-[:REFERENCES]->(b)`,
			map[string]any{"edges": edgeParams})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	r.log.Info("Seeded demonstration graph",
		"verses", len(verseParams),
		"edges", len(edgeParams),
	)
	return true, nil
}
