package repository

import (
	"context"

	"snapgram/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, page Page) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateProfilePic(ctx context.Context, id int64, url string) error
	// Delete removes the user; posts, comments, likes and follow edges go with it.
	Delete(ctx context.Context, id int64) error
}
