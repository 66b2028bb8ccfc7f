package repository

import (
	"context"

	"snapgram/internal/domain"
)

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	// AuthorUsername is matched exactly and case-sensitively.
	AuthorUsername string
	// Search matches content or author username as a case-insensitive substring.
	// Case folding is ASCII-only: "É" and "é" are different letters to a search.
	Search string
}

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	Update(ctx context.Context, id int64, changes domain.PostChanges) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter PostFilter, page Page) ([]domain.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}

// CommentRepository exposes persistence operations for comments.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	UpdateMessage(ctx context.Context, id int64, message string) error
	Delete(ctx context.Context, id int64) error
	// List returns newest comments first; postID 0 lists all posts.
	List(ctx context.Context, postID int64, page Page) ([]domain.Comment, error)
	Count(ctx context.Context, postID int64) (int64, error)
}
