package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/repository"
)

// FollowService toggles and lists follow edges.
type FollowService interface {
	// Toggle returns the created edge when the result is ToggleCreated.
	Toggle(ctx context.Context, actor domain.Actor, targetID int64) (domain.ToggleResult, *domain.Follow, error)
	Followers(ctx context.Context, userID int64, req PageRequest) (Paged[domain.Follow], error)
	Following(ctx context.Context, userID int64, req PageRequest) (Paged[domain.Follow], error)
}

type followService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	pager   Pager
	toggler toggler
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, pager Pager, logger logrus.FieldLogger) FollowService {
	return &followService{
		follows: follows,
		users:   users,
		pager:   pager,
		toggler: toggler{log: logger},
	}
}

func (s *followService) Toggle(ctx context.Context, actor domain.Actor, targetID int64) (domain.ToggleResult, *domain.Follow, error) {
	if err := policy.Can(actor, policy.ToggleFollow, policy.Resource{}); err != nil {
		return 0, nil, err
	}
	if targetID <= 0 {
		return 0, nil, fmt.Errorf("%w: following is required", domain.ErrValidation)
	}

	validate := func(ctx context.Context) error {
		if targetID == actor.UserID {
			return fmt.Errorf("%w: you cannot follow yourself", domain.ErrInvalidTarget)
		}
		if _, err := s.users.GetByID(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: user %d does not exist", domain.ErrInvalidTarget, targetID)
			}
			return err
		}
		return nil
	}

	out, err := s.toggler.toggle(ctx, s.follows, actor.UserID, targetID, validate)
	if err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return 0, nil, fmt.Errorf("%w: cannot follow user %d", domain.ErrInvalidTarget, targetID)
		}
		return 0, nil, err
	}
	if out.Result != domain.ToggleCreated {
		return out.Result, nil, nil
	}

	follow, err := s.follows.Get(ctx, out.EdgeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// removed by a concurrent toggle right after we created it
			return out.Result, &domain.Follow{ID: out.EdgeID, FollowerID: actor.UserID, FollowedID: targetID}, nil
		}
		return 0, nil, err
	}
	return out.Result, follow, nil
}

func (s *followService) Followers(ctx context.Context, userID int64, req PageRequest) (Paged[domain.Follow], error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return Paged[domain.Follow]{}, err
	}
	return paginate(ctx, s.pager, req,
		func(ctx context.Context) (int64, error) { return s.follows.CountFollowers(ctx, userID) },
		func(ctx context.Context, page repository.Page) ([]domain.Follow, error) {
			return s.follows.ListFollowers(ctx, userID, page)
		},
	)
}

func (s *followService) Following(ctx context.Context, userID int64, req PageRequest) (Paged[domain.Follow], error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return Paged[domain.Follow]{}, err
	}
	return paginate(ctx, s.pager, req,
		func(ctx context.Context) (int64, error) { return s.follows.CountFollowing(ctx, userID) },
		func(ctx context.Context, page repository.Page) ([]domain.Follow, error) {
			return s.follows.ListFollowing(ctx, userID, page)
		},
	)
}

func (s *followService) ensureUser(ctx context.Context, userID int64) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return mapNotFound(err, "user")
	}
	return nil
}
