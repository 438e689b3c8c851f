// Package graph implements the verse/annotation graph over Neo4j: schema
// constraints, merge-by-key node upserts, idempotent edge creation, and
// parameterized pattern queries, plus the typed repositories built on them.
package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/platform/neo4jdb"
)

// schemaStatements are idempotent and safe to run on every startup.
var schemaStatements = []string{
	`CREATE CONSTRAINT verse_id IF NOT EXISTS FOR (v:Verse) REQUIRE (v.book, v.chapter, v.verse) IS UNIQUE`,
	`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
	`CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
	`CREATE CONSTRAINT card_id_unique IF NOT EXISTS FOR (c:KnowledgeCard) REQUIRE c.id IS UNIQUE`,
}

// Store is the graph persistence boundary. Each method acquires one
// session from the driver's pool and closes it before returning, on every
// exit path. Nothing here caches a mutable node across requests.
type Store struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewStore(client *neo4jdb.Client, log *logger.Logger) *Store {
	return &Store{client: client, log: log.With("store", "Neo4jGraph")}
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.client.Database,
	})
}

// InitSchema ensures every uniqueness constraint. Constraint DDL cannot
// run inside a transaction function, so statements run one by one in
// auto-commit mode.
func (s *Store) InitSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	s.log.Debug("graph schema constraints ensured", "statements", len(schemaStatements))
	return nil
}

// UpsertNode merges a node by its natural key: created with attrs when
// absent, left untouched when present. Attributes outside the key are
// never overwritten by a later upsert.
func (s *Store) UpsertNode(ctx context.Context, label string, key map[string]any, attrs map[string]any) error {
	if err := validIdent(label); err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	frag, params, err := keyFragment("key", key)
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	params["attrs"] = attrs

	cypher := fmt.Sprintf("MERGE (n:%s {%s})\nON CREATE SET n += $attrs", label, frag)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return s.wrapWriteErr("upsert node", err)
}

// CreateEdge idempotently creates a directed typed edge between two
// existing nodes and reports whether this call created it. When either
// endpoint is missing nothing is created and the error wraps
// errors.ErrNotFound.
func (s *Store) CreateEdge(ctx context.Context, edgeType, fromLabel string, fromKey map[string]any, toLabel string, toKey map[string]any) (bool, error) {
	for _, ident := range []string{edgeType, fromLabel, toLabel} {
		if err := validIdent(ident); err != nil {
			return false, fmt.Errorf("create edge: %w", err)
		}
	}
	fromFrag, params, err := keyFragment("from", fromKey)
	if err != nil {
		return false, fmt.Errorf("create edge: %w", err)
	}
	toFrag, toParams, err := keyFragment("to", toKey)
	if err != nil {
		return false, fmt.Errorf("create edge: %w", err)
	}
	for k, v := range toParams {
		params[k] = v
	}

	cypher := fmt.Sprintf(`MATCH (a:%s {%s}), (b:%s {%s})
OPTIONAL MATCH (a)-[e:%s]->(b)
WITH a, b, count(e) AS existing
MERGE (a)-[:%s]->(b)
RETURN existing = 0 AS created`, fromLabel, fromFrag, toLabel, toFrag, edgeType, edgeType)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			record := res.Record()
			if v, ok := record.Get("created"); ok {
				if b, ok := v.(bool); ok {
					return b, nil
				}
			}
		}
		if err := res.Err(); err != nil {
			return false, err
		}
		// No row means an endpoint did not match.
		return false, fmt.Errorf("endpoint missing: %w", pkgerrors.ErrNotFound)
	})
	if err != nil {
		return false, s.wrapWriteErr("create edge", err)
	}
	created, _ := out.(bool)
	return created, nil
}

// FindNode returns the properties of the node matching label and key, or
// nil when no such node exists.
func (s *Store) FindNode(ctx context.Context, label string, key map[string]any) (map[string]any, error) {
	if err := validIdent(label); err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}
	frag, params, err := keyFragment("key", key)
	if err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}
	cypher := fmt.Sprintf("MATCH (n:%s {%s})\nRETURN n\nLIMIT 1", label, frag)

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}
	if result.Next(ctx) {
		record := result.Record()
		if v, ok := record.Get("n"); ok {
			if node, ok := v.(neo4j.Node); ok {
				return node.Props, nil
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}
	return nil, nil
}

// FindPattern executes a built pattern in a read session and returns its
// records as plain maps, in result order.
func (s *Store) FindPattern(ctx context.Context, p Pattern) ([]map[string]any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, p.Cypher(), p.Params())
	if err != nil {
		return nil, fmt.Errorf("find pattern: %w", err)
	}
	var rows []map[string]any
	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, k := range record.Keys {
			if v, ok := record.Get(k); ok {
				row[k] = v
			}
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("find pattern: %w", err)
	}
	return rows, nil
}

func (s *Store) wrapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		s.log.Warn(op+" rejected by uniqueness constraint", "error", err)
		return fmt.Errorf("%s: %w", op, pkgerrors.ErrConstraintViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.Contains(neoErr.Code, "ConstraintValidationFailed") ||
			strings.Contains(neoErr.Code, "ConstraintViolation")
	}
	return false
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent guards the label and relationship names spliced into query
// text. They only ever come from this package's callers, never from
// request data; values always travel as parameters.
func validIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// keyFragment renders a node key map as "k1: $prefix_k1, k2: $prefix_k2"
// with deterministic ordering, binding each value under the prefixed
// parameter name.
func keyFragment(prefix string, key map[string]any) (string, map[string]any, error) {
	if len(key) == 0 {
		return "", nil, fmt.Errorf("empty node key")
	}
	names := make([]string, 0, len(key))
	for name := range key {
		if err := validIdent(name); err != nil {
			return "", nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	params := make(map[string]any, len(names))
	for _, name := range names {
		param := prefix + "_" + name
		parts = append(parts, fmt.Sprintf("%s: $%s", name, param))
		params[param] = key[name]
	}
	return strings.Join(parts, ", "), params, nil
}
