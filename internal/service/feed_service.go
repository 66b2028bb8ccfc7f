package service

import (
	"context"
	"strings"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

// FeedService builds the read-side views over posts and comments.
type FeedService interface {
	ListPosts(ctx context.Context, authorUsername string, req PageRequest) (Paged[domain.Post], error)
	SearchPosts(ctx context.Context, query string, req PageRequest) (Paged[domain.Post], error)
	ListComments(ctx context.Context, postID int64, req PageRequest) (Paged[domain.Comment], error)
}

type feedService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	pager    Pager
}

func NewFeedService(posts repository.PostRepository, comments repository.CommentRepository, pager Pager) FeedService {
	return &feedService{
		posts:    posts,
		comments: comments,
		pager:    pager,
	}
}

func (s *feedService) ListPosts(ctx context.Context, authorUsername string, req PageRequest) (Paged[domain.Post], error) {
	filter := repository.PostFilter{AuthorUsername: authorUsername}
	return s.postPage(ctx, filter, req)
}

// SearchPosts never treats an empty query as "everything".
func (s *feedService) SearchPosts(ctx context.Context, query string, req PageRequest) (Paged[domain.Post], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyPage[domain.Post](s.pager, req), nil
	}
	return s.postPage(ctx, repository.PostFilter{Search: query}, req)
}

func (s *feedService) ListComments(ctx context.Context, postID int64, req PageRequest) (Paged[domain.Comment], error) {
	return paginate(ctx, s.pager, req,
		func(ctx context.Context) (int64, error) { return s.comments.Count(ctx, postID) },
		func(ctx context.Context, page repository.Page) ([]domain.Comment, error) {
			return s.comments.List(ctx, postID, page)
		},
	)
}

func (s *feedService) postPage(ctx context.Context, filter repository.PostFilter, req PageRequest) (Paged[domain.Post], error) {
	return paginate(ctx, s.pager, req,
		func(ctx context.Context) (int64, error) { return s.posts.Count(ctx, filter) },
		func(ctx context.Context, page repository.Page) ([]domain.Post, error) {
			return s.posts.List(ctx, filter, page)
		},
	)
}
