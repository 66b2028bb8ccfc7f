package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/repository"
)

// CommentService coordinates comment mutations.
type CommentService interface {
	Create(ctx context.Context, actor domain.Actor, postID int64, message string) (*domain.Comment, error)
	Update(ctx context.Context, actor domain.Actor, id int64, message string) (*domain.Comment, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) CommentService {
	return &commentService{
		comments: comments,
		posts:    posts,
	}
}

func (s *commentService) Create(ctx context.Context, actor domain.Actor, postID int64, message string) (*domain.Comment, error) {
	if err := policy.Can(actor, policy.CreateComment, policy.Resource{}); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if postID <= 0 {
		return nil, fmt.Errorf("%w: post is required", domain.ErrValidation)
	}
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, mapNotFound(err, "post")
	}

	comment := &domain.Comment{
		PostID:   postID,
		AuthorID: actor.UserID,
		Message:  message,
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return nil, postEdgeConflict(ctx, s.posts, postID)
		}
		return nil, err
	}
	return s.load(ctx, comment.ID)
}

func (s *commentService) Update(ctx context.Context, actor domain.Actor, id int64, message string) (*domain.Comment, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Can(actor, policy.UpdateComment, policy.Owned(comment.AuthorID)); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message may not be blank", domain.ErrValidation)
	}
	if err := s.comments.UpdateMessage(ctx, id, message); err != nil {
		return nil, mapNotFound(err, "comment")
	}
	return s.load(ctx, id)
}

func (s *commentService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Can(actor, policy.DeleteComment, policy.Owned(comment.AuthorID)); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return mapNotFound(err, "comment")
	}
	return nil
}

func (s *commentService) load(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "comment")
	}
	return comment, nil
}
