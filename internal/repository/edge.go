package repository

import (
	"context"

	"snapgram/internal/domain"
)

// EdgeStore is the storage contract of a toggleable (actor, target) relationship.
type EdgeStore interface {
	// Insert creates the edge, returning ErrDuplicate when it already exists.
	Insert(ctx context.Context, actorID, targetID int64) (int64, error)
	// Remove deletes the edge and reports whether one existed.
	Remove(ctx context.Context, actorID, targetID int64) (bool, error)
}

// LikeRepository stores (user, post) likes.
type LikeRepository interface {
	EdgeStore
	Init(ctx context.Context) error
	ListByPost(ctx context.Context, postID int64, page Page) ([]domain.Like, error)
	CountByPost(ctx context.Context, postID int64) (int64, error)
}

// FollowRepository stores directed follower -> followed edges.
type FollowRepository interface {
	EdgeStore
	Init(ctx context.Context) error
	Get(ctx context.Context, id int64) (*domain.Follow, error)
	ListFollowers(ctx context.Context, userID int64, page Page) ([]domain.Follow, error)
	CountFollowers(ctx context.Context, userID int64) (int64, error)
	ListFollowing(ctx context.Context, userID int64, page Page) ([]domain.Follow, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)
}
