package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/repository"
	"snapgram/internal/storage"
)

// MediaInput is either a reference to already stored media or a fresh upload.
// An empty URL with no upload clears the field on update.
type MediaInput struct {
	URL    string
	Upload *storage.Object
}

// PostInput is the writable shape of a post on create.
type PostInput struct {
	Content string
	Image   *MediaInput
	Video   *MediaInput
}

// PostUpdate is the writable shape of a post on update; nil fields are untouched.
type PostUpdate struct {
	Content *string
	Image   *MediaInput
	Video   *MediaInput
}

// PostService coordinates post mutations.
type PostService interface {
	Create(ctx context.Context, actor domain.Actor, in PostInput) (*domain.Post, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Post, error)
	Update(ctx context.Context, actor domain.Actor, id int64, in PostUpdate) (*domain.Post, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
}

type postService struct {
	posts repository.PostRepository
	media storage.Service
}

func NewPostService(posts repository.PostRepository, media storage.Service) PostService {
	if media == nil {
		media = storage.Unconfigured{}
	}
	return &postService{
		posts: posts,
		media: media,
	}
}

func (s *postService) Create(ctx context.Context, actor domain.Actor, in PostInput) (*domain.Post, error) {
	if err := policy.Can(actor, policy.CreatePost, policy.Resource{}); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	image, err := s.resolveMedia(ctx, in.Image, storage.KindImage)
	if err != nil {
		return nil, err
	}
	video, err := s.resolveMedia(ctx, in.Video, storage.KindVideo)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		AuthorID: actor.UserID,
		Content:  content,
	}
	if image != nil {
		post.Image = *image
	}
	if video != nil {
		post.Video = *video
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return nil, fmt.Errorf("%w: author no longer exists", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	return s.load(ctx, post.ID)
}

func (s *postService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Post, error) {
	if err := policy.Can(actor, policy.ReadPost, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *postService) Update(ctx context.Context, actor domain.Actor, id int64, in PostUpdate) (*domain.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Can(actor, policy.UpdatePost, policy.Owned(post.AuthorID)); err != nil {
		return nil, err
	}

	var changes domain.PostChanges
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content may not be blank", domain.ErrValidation)
		}
		changes.Content = &content
	}
	if changes.Image, err = s.resolveMedia(ctx, in.Image, storage.KindImage); err != nil {
		return nil, err
	}
	if changes.Video, err = s.resolveMedia(ctx, in.Video, storage.KindVideo); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, id, changes); err != nil {
		return nil, mapNotFound(err, "post")
	}
	return s.load(ctx, id)
}

func (s *postService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Can(actor, policy.DeletePost, policy.Owned(post.AuthorID)); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return mapNotFound(err, "post")
	}
	return nil
}

func (s *postService) load(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "post")
	}
	return post, nil
}

func (s *postService) resolveMedia(ctx context.Context, in *MediaInput, kind storage.Kind) (*string, error) {
	if in == nil {
		return nil, nil
	}
	if in.Upload == nil {
		url := strings.TrimSpace(in.URL)
		return &url, nil
	}
	in.Upload.Kind = kind
	url, err := s.media.Store(ctx, *in.Upload)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, fmt.Errorf("%w: media uploads are not enabled", domain.ErrValidation)
		}
		return nil, fmt.Errorf("store %s: %w", kind, err)
	}
	return &url, nil
}

// mapNotFound turns a repository miss into the caller-facing not_found kind.
func mapNotFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s does not exist", domain.ErrNotFound, what)
	}
	return err
}

// postEdgeConflict explains a foreign key failure on a row that references both a
// post and its author: either the post vanished or the caller's account did.
func postEdgeConflict(ctx context.Context, posts repository.PostRepository, postID int64) error {
	if _, err := posts.Get(ctx, postID); err != nil {
		return mapNotFound(err, "post")
	}
	return fmt.Errorf("%w: author no longer exists", domain.ErrUnauthenticated)
}
