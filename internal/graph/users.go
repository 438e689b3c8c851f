package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yuehanlin/biblegraph-backend/internal/domain"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type userRepo struct {
	store *Store
	log   *logger.Logger
}

func NewUserRepo(store *Store, log *logger.Logger) UserRepo {
	return &userRepo{
		store: store,
		log:   log.With("repo", "User"),
	}
}

// Create inserts a new user node. Uniqueness of id, username and email
// is enforced by schema constraints; violations surface as
// errors.ErrConstraintViolation.
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	params := map[string]any{
		"id":            user.ID.String(),
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"full_name":     user.FullName,
		"created_at":    user.CreatedAt.Format(time.RFC3339Nano),
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			CREATE (u:User {
				id: $id,
				username: $username,
				email: $email,
				password_hash: $password_hash,
				full_name: $full_name,
				created_at: $created_at
			})`, params)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return r.store.wrapWriteErr("create user", err)
	}
	return nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	props, err := r.store.FindNode(ctx, "User", map[string]any{"username": username})
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	if props == nil {
		return nil, nil
	}
	return userFromProps(props), nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	props, err := r.store.FindNode(ctx, "User", map[string]any{"id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	if props == nil {
		return nil, nil
	}
	return userFromProps(props), nil
}

func userFromProps(props map[string]any) *domain.User {
	return &domain.User{
		ID:           getUUIDFromMap(props, "id"),
		Username:     getStringFromMap(props, "username", ""),
		Email:        getStringFromMap(props, "email", ""),
		PasswordHash: getStringFromMap(props, "password_hash", ""),
		FullName:     getStringFromMap(props, "full_name", ""),
		CreatedAt:    getTimeFromMap(props, "created_at"),
	}
}
