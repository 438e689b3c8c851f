package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
)

func newTestCardService() (CardService, *fakeCardRepo, *fakeVerseRepo) {
	cards := newFakeCardRepo()
	verses := newFakeVerseRepo()
	return NewCardService(testLogger(), cards, verses), cards, verses
}

func validCreateInput() CreateCardInput {
	return CreateCardInput{
		Title:   "Light before luminaries",
		Content: "The text names light before sun and moon.",
		Tags:    []string{"creation", "light"},
		Type:    "note",
		Verse:   CardVerseInput{Book: "创世记", Chapter: 1, Verse: 3, Text: "神说：「要有光」，就有了光。"},
	}
}

func TestCardCreate_EnsuresVerseThenWritesCard(t *testing.T) {
	svc, cards, verses := newTestCardService()
	owner := uuid.New()

	var ensuredAtCreate int
	cards.onCreate = func(*domain.KnowledgeCard) {
		ensuredAtCreate = len(verses.ensured)
	}

	card, err := svc.Create(ctxWithUser(owner), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ensuredAtCreate != 1 {
		t.Fatalf("expected verse ensured before card write")
	}
	if verses.ensured[0].ref != (domain.VerseRef{Book: "创世记", Chapter: 1, Verse: 3}) {
		t.Fatalf("unexpected ensured verse: %+v", verses.ensured[0])
	}
	if verses.ensured[0].text != "神说：「要有光」，就有了光。" {
		t.Fatalf("expected supplied text forwarded, got %q", verses.ensured[0].text)
	}

	if card.ID == uuid.Nil || card.OwnerID != owner {
		t.Fatalf("unexpected identity fields: %+v", card)
	}
	if card.Type != domain.CardTypeNote || card.IsPublic {
		t.Fatalf("unexpected card attributes: %+v", card)
	}
	if card.CreatedAt.IsZero() || !card.CreatedAt.Equal(card.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at on create, got %v / %v", card.CreatedAt, card.UpdatedAt)
	}
	if len(cards.cards) != 1 {
		t.Fatalf("expected card persisted")
	}
}

func TestCardCreate_RequiresAuthenticatedOwner(t *testing.T) {
	svc, cards, verses := newTestCardService()
	_, err := svc.Create(context.Background(), validCreateInput())
	if !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(verses.ensured) != 0 || len(cards.cards) != 0 {
		t.Fatalf("expected no writes without an owner")
	}
}

func TestCardCreate_RejectsInvalidPayload(t *testing.T) {
	svc, cards, verses := newTestCardService()
	owner := uuid.New()

	mutations := []func(in *CreateCardInput){
		func(in *CreateCardInput) { in.Title = "   " },
		func(in *CreateCardInput) { in.Content = "" },
		func(in *CreateCardInput) { in.Type = "sermon" },
		func(in *CreateCardInput) { in.Verse.Book = "" },
		func(in *CreateCardInput) { in.Verse.Chapter = 0 },
		func(in *CreateCardInput) { in.Verse.Verse = -2 },
	}
	for i, mutate := range mutations {
		in := validCreateInput()
		mutate(&in)
		if _, err := svc.Create(ctxWithUser(owner), in); !errors.Is(err, pkgerrors.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
	if len(verses.ensured) != 0 || len(cards.cards) != 0 {
		t.Fatalf("expected no writes for invalid payloads")
	}
}

func TestCardGet_VisibilityRule(t *testing.T) {
	svc, cards, _ := newTestCardService()
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(ctxWithUser(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Private card: the owner sees it, a stranger and an anonymous
	// caller get the unified error.
	if _, err := svc.Get(ctxWithUser(owner), created.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.Get(ctxWithUser(stranger), created.ID); !errors.Is(err, pkgerrors.ErrNotFoundOrForbidden) {
		t.Fatalf("expected ErrNotFoundOrForbidden for stranger, got %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, pkgerrors.ErrNotFoundOrForbidden) {
		t.Fatalf("expected ErrNotFoundOrForbidden for anonymous, got %v", err)
	}

	// Flipping is_public makes the identical request succeed with
	// identical content.
	cards.cards[created.ID].IsPublic = true
	got, err := svc.Get(ctxWithUser(stranger), created.ID)
	if err != nil {
		t.Fatalf("public read: %v", err)
	}
	if got.Title != created.Title || got.Content != created.Content {
		t.Fatalf("expected identical content, got %+v", got)
	}
}

func TestCardUpdate_PartialSetRefreshesTimestamp(t *testing.T) {
	svc, cards, _ := newTestCardService()
	owner := uuid.New()
	created, err := svc.Create(ctxWithUser(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "  Light precedes the sun  "
	updated, err := svc.Update(ctxWithUser(owner), created.ID, UpdateCardInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Light precedes the sun" {
		t.Fatalf("expected trimmed title, got %q", updated.Title)
	}
	if updated.Content != created.Content {
		t.Fatalf("unsupplied fields must stay untouched")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at refresh, got %v", updated.UpdatedAt)
	}

	for _, key := range []string{"content", "tags", "type"} {
		if _, ok := cards.lastSet[key]; ok {
			t.Fatalf("unsupplied field %q must not be written", key)
		}
	}
	if _, ok := cards.lastSet["updated_at"]; !ok {
		t.Fatalf("updated_at must always be written")
	}
	if _, ok := cards.lastSet["is_public"]; ok {
		t.Fatalf("is_public is not updatable")
	}
}

func TestCardUpdate_RejectsUnknownType(t *testing.T) {
	svc, _, _ := newTestCardService()
	owner := uuid.New()
	created, err := svc.Create(ctxWithUser(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bad := "sermon"
	if _, err := svc.Update(ctxWithUser(owner), created.ID, UpdateCardInput{Type: &bad}); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCardUpdateAndDelete_DoNotLeakExistence(t *testing.T) {
	svc, cards, _ := newTestCardService()
	owner := uuid.New()
	stranger := uuid.New()
	created, err := svc.Create(ctxWithUser(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "hijacked"
	_, errMissing := svc.Update(ctxWithUser(stranger), uuid.New(), UpdateCardInput{Title: &title})
	_, errForeign := svc.Update(ctxWithUser(stranger), created.ID, UpdateCardInput{Title: &title})
	if !errors.Is(errMissing, pkgerrors.ErrNotFoundOrForbidden) || !errors.Is(errForeign, pkgerrors.ErrNotFoundOrForbidden) {
		t.Fatalf("expected unified error, got %v / %v", errMissing, errForeign)
	}
	if cards.cards[created.ID].Title == "hijacked" {
		t.Fatalf("foreign update must not change state")
	}

	errMissingDel := svc.Delete(ctxWithUser(stranger), uuid.New())
	errForeignDel := svc.Delete(ctxWithUser(stranger), created.ID)
	if !errors.Is(errMissingDel, pkgerrors.ErrNotFoundOrForbidden) || !errors.Is(errForeignDel, pkgerrors.ErrNotFoundOrForbidden) {
		t.Fatalf("expected unified error, got %v / %v", errMissingDel, errForeignDel)
	}
	if _, ok := cards.cards[created.ID]; !ok {
		t.Fatalf("foreign delete must not remove the card")
	}

	if err := svc.Delete(ctxWithUser(owner), created.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(cards.cards) != 0 {
		t.Fatalf("expected card removed")
	}
}

func TestCardListByVerse_ForwardsRequesterIdentity(t *testing.T) {
	svc, cards, _ := newTestCardService()
	owner := uuid.New()
	ref := domain.VerseRef{Book: "创世记", Chapter: 1, Verse: 3}

	if _, err := svc.ListByVerse(context.Background(), ref); err != nil {
		t.Fatalf("anonymous list: %v", err)
	}
	if cards.lastReq != "" {
		t.Fatalf("expected empty requester for anonymous caller, got %q", cards.lastReq)
	}

	if _, err := svc.ListByVerse(ctxWithUser(owner), ref); err != nil {
		t.Fatalf("authenticated list: %v", err)
	}
	if cards.lastReq != owner.String() {
		t.Fatalf("expected requester %s, got %q", owner, cards.lastReq)
	}
}

func TestCardListOwn_RequiresAuthAndValidFilters(t *testing.T) {
	svc, _, _ := newTestCardService()
	if _, err := svc.ListOwn(context.Background(), graph.CardFilters{}); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	bad := "sermon"
	if _, err := svc.ListOwn(ctxWithUser(uuid.New()), graph.CardFilters{Type: &bad}); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCardListOwn_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTestCardService()
	owner := uuid.New()
	other := uuid.New()

	if _, err := svc.Create(ctxWithUser(owner), validCreateInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	otherInput := validCreateInput()
	otherInput.Title = "someone else's card"
	if _, err := svc.Create(ctxWithUser(other), otherInput); err != nil {
		t.Fatalf("create other: %v", err)
	}

	own, err := svc.ListOwn(ctxWithUser(owner), graph.CardFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].OwnerID != owner {
		t.Fatalf("expected only the owner's cards, got %+v", own)
	}
}
