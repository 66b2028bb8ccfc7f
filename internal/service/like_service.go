package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/repository"
)

// LikeService toggles and lists likes on posts.
type LikeService interface {
	Toggle(ctx context.Context, actor domain.Actor, postID int64) (domain.ToggleResult, error)
	List(ctx context.Context, postID int64, req PageRequest) (Paged[domain.Like], error)
}

type likeService struct {
	likes   repository.LikeRepository
	posts   repository.PostRepository
	pager   Pager
	toggler toggler
}

func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, pager Pager, logger logrus.FieldLogger) LikeService {
	return &likeService{
		likes:   likes,
		posts:   posts,
		pager:   pager,
		toggler: toggler{log: logger},
	}
}

func (s *likeService) Toggle(ctx context.Context, actor domain.Actor, postID int64) (domain.ToggleResult, error) {
	if err := policy.Can(actor, policy.ToggleLike, policy.Resource{}); err != nil {
		return 0, err
	}
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return 0, mapNotFound(err, "post")
	}

	out, err := s.toggler.toggle(ctx, s.likes, actor.UserID, postID, nil)
	if err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return 0, postEdgeConflict(ctx, s.posts, postID)
		}
		return 0, err
	}
	return out.Result, nil
}

func (s *likeService) List(ctx context.Context, postID int64, req PageRequest) (Paged[domain.Like], error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return Paged[domain.Like]{}, mapNotFound(err, "post")
	}
	return paginate(ctx, s.pager, req,
		func(ctx context.Context) (int64, error) { return s.likes.CountByPost(ctx, postID) },
		func(ctx context.Context, page repository.Page) ([]domain.Like, error) {
			return s.likes.ListByPost(ctx, postID, page)
		},
	)
}
