package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardType classifies a knowledge card.
type CardType string

const (
	CardTypeNote       CardType = "note"
	CardTypeCommentary CardType = "commentary"
	CardTypeReflection CardType = "reflection"
)

// CardTypes lists every valid card type, in declaration order.
func CardTypes() []CardType {
	return []CardType{CardTypeNote, CardTypeCommentary, CardTypeReflection}
}

func (t CardType) Valid() bool {
	switch t {
	case CardTypeNote, CardTypeCommentary, CardTypeReflection:
		return true
	}
	return false
}

// Verse is the atomic scripture unit, globally unique by
// (Book, Chapter, Verse). Text may be empty; the key components never are.
type Verse struct {
	Book       string `json:"book"`
	BookNumber int    `json:"book_number,omitempty"`
	Chapter    int    `json:"chapter"`
	Verse      int    `json:"verse"`
	Text       string `json:"text"`
}

// VerseRef addresses a verse without carrying its text.
type VerseRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

func (r VerseRef) IsZero() bool {
	return r.Book == "" && r.Chapter == 0 && r.Verse == 0
}

// CrossReference is one directed REFERENCES edge between two verses, as
// returned by the subgraph view.
type CrossReference struct {
	SourceBook    string `json:"source_book"`
	SourceChapter int    `json:"source_chapter"`
	SourceVerse   int    `json:"source_verse"`
	TargetBook    string `json:"target_book"`
	TargetChapter int    `json:"target_chapter"`
	TargetVerse   int    `json:"target_verse"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// KnowledgeCard is a user-authored annotation attached to exactly one
// verse. Ownership and the verse reference are set at creation and never
// re-pointed.
type KnowledgeCard struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Type      CardType  `json:"type"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Verse     VerseRef  `json:"verse"`
}
