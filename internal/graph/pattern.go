package graph

import (
	"fmt"
	"strings"
)

// DefaultSubgraphLimit caps the cross-reference subgraph view when the
// caller does not supply a limit.
const DefaultSubgraphLimit = 100

// Predicate is one named, parameterized WHERE fragment. Rendered text only
// ever references fields and parameter names chosen by this package;
// caller values travel exclusively through the parameter map.
type Predicate struct {
	expr   string
	params map[string]any
}

// Eq binds value under the given parameter name and renders
// "field = $param".
func Eq(field, param string, value any) Predicate {
	return Predicate{
		expr:   fmt.Sprintf("%s = $%s", field, param),
		params: map[string]any{param: value},
	}
}

// And combines predicates conjunctively. Empty predicates are skipped; a
// single survivor is returned untouched.
func And(preds ...Predicate) Predicate {
	return combine("AND", preds)
}

// Or combines predicates disjunctively.
func Or(preds ...Predicate) Predicate {
	return combine("OR", preds)
}

func combine(op string, preds []Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p.expr != "" {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Predicate{}
	case 1:
		return kept[0]
	}
	exprs := make([]string, 0, len(kept))
	params := map[string]any{}
	for _, p := range kept {
		exprs = append(exprs, p.expr)
		for k, v := range p.params {
			params[k] = v
		}
	}
	return Predicate{
		expr:   "(" + strings.Join(exprs, " "+op+" ") + ")",
		params: params,
	}
}

// Pattern is a complete executable graph query. Cypher renders the text;
// Params carries every bound value, including the limit.
type Pattern struct {
	match   string
	where   Predicate
	returns string
	orderBy string
	limit   int
	extra   map[string]any
}

func (p Pattern) Cypher() string {
	var sb strings.Builder
	sb.WriteString("MATCH ")
	sb.WriteString(p.match)
	if p.where.expr != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(p.where.expr)
	}
	sb.WriteString("\nRETURN ")
	sb.WriteString(p.returns)
	if p.orderBy != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(p.orderBy)
	}
	if p.limit > 0 {
		sb.WriteString("\nLIMIT $limit")
	}
	return sb.String()
}

func (p Pattern) Params() map[string]any {
	out := make(map[string]any, len(p.extra)+len(p.where.params)+1)
	for k, v := range p.extra {
		out[k] = v
	}
	for k, v := range p.where.params {
		out[k] = v
	}
	if p.limit > 0 {
		out["limit"] = p.limit
	}
	return out
}

// SubgraphFilters narrows the cross-reference subgraph view. Nil fields
// impose no constraint. A supplied field matches an edge when either
// endpoint satisfies it; distinct fields must all hold.
type SubgraphFilters struct {
	Book    *string
	Chapter *int
	Verse   *int
}

// BuildSubgraphQuery composes the Verse-[REFERENCES]->Verse traversal.
// Each supplied filter spans both endpoint roles with OR; filters combine
// with AND. A non-positive limit falls back to DefaultSubgraphLimit, and
// the limit is always applied as a hard cap.
func BuildSubgraphQuery(f SubgraphFilters, limit int) Pattern {
	if limit <= 0 {
		limit = DefaultSubgraphLimit
	}
	clauses := make([]Predicate, 0, 3)
	if f.Book != nil {
		clauses = append(clauses, Or(
			Eq("v1.book", "book", *f.Book),
			Eq("v2.book", "book", *f.Book),
		))
	}
	if f.Chapter != nil {
		clauses = append(clauses, Or(
			Eq("v1.chapter", "chapter", *f.Chapter),
			Eq("v2.chapter", "chapter", *f.Chapter),
		))
	}
	if f.Verse != nil {
		clauses = append(clauses, Or(
			Eq("v1.verse", "verse", *f.Verse),
			Eq("v2.verse", "verse", *f.Verse),
		))
	}
	return Pattern{
		match: "(v1:Verse)-[r:REFERENCES]->(v2:Verse)",
		where: And(clauses...),
		returns: strings.Join([]string{
			"v1.book AS source_book",
			"v1.chapter AS source_chapter",
			"v1.verse AS source_verse",
			"v2.book AS target_book",
			"v2.chapter AS target_chapter",
			"v2.verse AS target_verse",
		}, ", "),
		limit: limit,
	}
}

// CardFilters narrows a knowledge-card listing. All supplied fields are
// AND-combined equalities.
type CardFilters struct {
	Book    *string
	Chapter *int
	Verse   *int
	Type    *string
}

var cardReturns = strings.Join([]string{
	"c.id AS id",
	"c.title AS title",
	"c.content AS content",
	"c.tags AS tags",
	"c.type AS type",
	"c.is_public AS is_public",
	"c.created_at AS created_at",
	"c.updated_at AS updated_at",
	"u.id AS owner_id",
	"v.book AS book",
	"v.chapter AS chapter",
	"v.verse AS verse",
}, ", ")

// BuildCardListingQuery composes the owner-scoped card listing over
// User-[CREATED]->KnowledgeCard-[REFERENCES]->Verse, newest first. The
// result is unbounded; callers impose any cap externally.
func BuildCardListingQuery(ownerID string, f CardFilters) Pattern {
	clauses := make([]Predicate, 0, 4)
	if f.Book != nil {
		clauses = append(clauses, Eq("v.book", "book", *f.Book))
	}
	if f.Chapter != nil {
		clauses = append(clauses, Eq("v.chapter", "chapter", *f.Chapter))
	}
	if f.Verse != nil {
		clauses = append(clauses, Eq("v.verse", "verse", *f.Verse))
	}
	if f.Type != nil {
		clauses = append(clauses, Eq("c.type", "card_type", *f.Type))
	}
	return Pattern{
		match:   "(u:User {id: $owner_id})-[:CREATED]->(c:KnowledgeCard)-[:REFERENCES]->(v:Verse)",
		where:   And(clauses...),
		returns: cardReturns,
		orderBy: "c.created_at DESC",
		extra:   map[string]any{"owner_id": ownerID},
	}
}

// BuildVerseCardsQuery composes the public listing of cards attached to
// one verse. Public cards always qualify; when requesterID is non-empty
// the requester's own private cards qualify too.
func BuildVerseCardsQuery(book string, chapter, verse int, requesterID string) Pattern {
	visibility := Eq("c.is_public", "is_public", true)
	if requesterID != "" {
		visibility = Or(visibility, Eq("u.id", "requester_id", requesterID))
	}
	return Pattern{
		match:   "(u:User)-[:CREATED]->(c:KnowledgeCard)-[:REFERENCES]->(v:Verse {book: $book, chapter: $chapter, verse: $verse})",
		where:   visibility,
		returns: cardReturns,
		orderBy: "c.created_at DESC",
		extra: map[string]any{
			"book":    book,
			"chapter": chapter,
			"verse":   verse,
		},
	}
}
