package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	"github.com/yuehanlin/biblegraph-backend/internal/requestdata"
	"github.com/yuehanlin/biblegraph-backend/internal/services"
)

type fakeAuthService struct {
	registerUser *domain.User
	registerErr  error
	loginToken   string
	loginErr     error
	currentUser  *domain.User
	currentErr   error
	ttl          time.Duration

	lastRegister services.RegisterInput
	lastLogin    [2]string
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, in services.RegisterInput) (*domain.User, error) {
	f.lastRegister = in
	return f.registerUser, f.registerErr
}

func (f *fakeAuthService) LoginUser(ctx context.Context, username, password string) (string, time.Duration, error) {
	f.lastLogin = [2]string{username, password}
	if f.loginErr != nil {
		return "", 0, f.loginErr
	}
	return f.loginToken, f.ttl, nil
}

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	id, err := uuid.Parse(tokenString)
	if err != nil {
		return ctx, err
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{TokenString: tokenString, UserID: id}), nil
}

func (f *fakeAuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	return f.currentUser, f.currentErr
}

func (f *fakeAuthService) GetAccessTTL() time.Duration { return f.ttl }

type fakeVerseService struct {
	verse     *domain.Verse
	verseErr  error
	crossRefs []*domain.Verse
	crossErr  error
	edges     []domain.CrossReference
	edgesErr  error

	lastRef     domain.VerseRef
	lastFilters graph.SubgraphFilters
	lastLimit   int
}

func (f *fakeVerseService) Get(ctx context.Context, ref domain.VerseRef) (*domain.Verse, error) {
	f.lastRef = ref
	return f.verse, f.verseErr
}

func (f *fakeVerseService) CrossReferences(ctx context.Context, ref domain.VerseRef) ([]*domain.Verse, error) {
	f.lastRef = ref
	return f.crossRefs, f.crossErr
}

func (f *fakeVerseService) GraphData(ctx context.Context, filters graph.SubgraphFilters, limit int) ([]domain.CrossReference, error) {
	f.lastFilters = filters
	f.lastLimit = limit
	return f.edges, f.edgesErr
}

type fakeCardService struct {
	card      *domain.KnowledgeCard
	cardErr   error
	cards     []*domain.KnowledgeCard
	listErr   error
	deleteErr error

	lastCreate  services.CreateCardInput
	lastUpdate  services.UpdateCardInput
	lastID      uuid.UUID
	lastRef     domain.VerseRef
	lastFilters graph.CardFilters
}

func (f *fakeCardService) Create(ctx context.Context, in services.CreateCardInput) (*domain.KnowledgeCard, error) {
	f.lastCreate = in
	return f.card, f.cardErr
}

func (f *fakeCardService) ListOwn(ctx context.Context, filters graph.CardFilters) ([]*domain.KnowledgeCard, error) {
	f.lastFilters = filters
	return f.cards, f.listErr
}

func (f *fakeCardService) Get(ctx context.Context, id uuid.UUID) (*domain.KnowledgeCard, error) {
	f.lastID = id
	return f.card, f.cardErr
}

func (f *fakeCardService) ListByVerse(ctx context.Context, ref domain.VerseRef) ([]*domain.KnowledgeCard, error) {
	f.lastRef = ref
	return f.cards, f.listErr
}

func (f *fakeCardService) Update(ctx context.Context, id uuid.UUID, in services.UpdateCardInput) (*domain.KnowledgeCard, error) {
	f.lastID = id
	f.lastUpdate = in
	return f.card, f.cardErr
}

func (f *fakeCardService) Delete(ctx context.Context, id uuid.UUID) error {
	f.lastID = id
	return f.deleteErr
}
