package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/requestdata"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func ctxWithUser(id uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: id})
}

type fakeUserRepo struct {
	createErr error
	users     map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("create user: %w", pkgerrors.ErrConstraintViolation)
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

type ensuredVerse struct {
	ref  domain.VerseRef
	text string
}

type fakeVerseRepo struct {
	verses        map[domain.VerseRef]*domain.Verse
	ensured       []ensuredVerse
	ensureErr     error
	seedCalls     int
	seedErr       error
	crossRefs     []*domain.Verse
	subgraph      []domain.CrossReference
	subgraphErr   error
	subgraphCalls int
	lastFilters   graph.SubgraphFilters
	lastLimit     int
}

func newFakeVerseRepo() *fakeVerseRepo {
	return &fakeVerseRepo{verses: map[domain.VerseRef]*domain.Verse{}}
}

func (f *fakeVerseRepo) InitSchema(ctx context.Context) error { return nil }

func (f *fakeVerseRepo) UpsertVerse(ctx context.Context, v *domain.Verse) error {
	ref := domain.VerseRef{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse}
	if _, ok := f.verses[ref]; !ok {
		copied := *v
		f.verses[ref] = &copied
	}
	return nil
}

func (f *fakeVerseRepo) EnsureVerse(ctx context.Context, ref domain.VerseRef, text string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, ensuredVerse{ref: ref, text: text})
	if _, ok := f.verses[ref]; !ok {
		f.verses[ref] = &domain.Verse{Book: ref.Book, Chapter: ref.Chapter, Verse: ref.Verse, Text: text}
	}
	return nil
}

func (f *fakeVerseRepo) LinkVerses(ctx context.Context, from, to domain.VerseRef) (bool, error) {
	return true, nil
}

func (f *fakeVerseRepo) GetVerse(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error) {
	v, ok := f.verses[ref]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVerseRepo) CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error) {
	return f.crossRefs, nil
}

func (f *fakeVerseRepo) Subgraph(ctx context.Context, filters graph.SubgraphFilters, limit int) ([]domain.CrossReference, error) {
	f.subgraphCalls++
	f.lastFilters = filters
	f.lastLimit = limit
	return f.subgraph, f.subgraphErr
}

func (f *fakeVerseRepo) CountVerses(ctx context.Context) (int64, error) {
	return int64(len(f.verses)), nil
}

func (f *fakeVerseRepo) SeedIfEmpty(ctx context.Context) (bool, error) {
	f.seedCalls++
	if f.seedErr != nil {
		return false, f.seedErr
	}
	if len(f.verses) > 0 {
		return false, nil
	}
	f.verses[domain.VerseRef{Book: "创世记", Chapter: 1, Verse: 1}] = &domain.Verse{
		Book: "创世记", Chapter: 1, Verse: 1, Text: "起初，神创造天地。",
	}
	return true, nil
}

type fakeCardRepo struct {
	cards     map[uuid.UUID]*domain.KnowledgeCard
	createErr error
	onCreate  func(card *domain.KnowledgeCard)
	lastSet   map[string]any
	lastReq   string
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: map[uuid.UUID]*domain.KnowledgeCard{}}
}

func (f *fakeCardRepo) Create(ctx context.Context, card *domain.KnowledgeCard) error {
	if f.onCreate != nil {
		f.onCreate(card)
	}
	if f.createErr != nil {
		return f.createErr
	}
	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error) {
	c, ok := f.cards[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters graph.CardFilters) ([]*domain.KnowledgeCard, error) {
	out := []*domain.KnowledgeCard{}
	for _, c := range f.cards {
		if c.OwnerID != ownerID {
			continue
		}
		if filters.Type != nil && string(c.Type) != *filters.Type {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeCardRepo) ListByVerse(ctx context.Context, ref domain.VerseRef, requesterID string) ([]*domain.KnowledgeCard, error) {
	f.lastReq = requesterID
	out := []*domain.KnowledgeCard{}
	for _, c := range f.cards {
		if c.Verse != ref {
			continue
		}
		if c.IsPublic || (requesterID != "" && c.OwnerID.String() == requesterID) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCardRepo) Update(ctx context.Context, ownerID, id uuid.UUID, set map[string]any) (*domain.KnowledgeCard, error) {
	f.lastSet = set
	c, ok := f.cards[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	if v, ok := set["title"].(string); ok {
		c.Title = v
	}
	if v, ok := set["content"].(string); ok {
		c.Content = v
	}
	if v, ok := set["tags"].([]string); ok {
		c.Tags = v
	}
	if v, ok := set["type"].(string); ok {
		c.Type = domain.CardType(v)
	}
	if v, ok := set["updated_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			c.UpdatedAt = t
		}
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCardRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	c, ok := f.cards[id]
	if !ok || c.OwnerID != ownerID {
		return false, nil
	}
	delete(f.cards, id)
	return true, nil
}

type fakeCache struct {
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, val []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = val
	return nil
}
