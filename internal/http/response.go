package http

import (
	"context"
	"time"

	"snapgram/internal/domain"
	"snapgram/internal/service"
)

// videoFormat is the streaming-friendly format videos are served in.
const videoFormat = "mp4"

type PageResponse[T any] struct {
	Results  []T   `json:"results"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"has_more"`
}

func toPage[S, T any](page service.Paged[S], convert func(S) T) PageResponse[T] {
	out := PageResponse[T]{
		Results:  make([]T, len(page.Items)),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasMore:  page.HasMore,
	}
	for i := range page.Items {
		out.Results[i] = convert(page.Items[i])
	}
	return out
}

type PostResponse struct {
	ID             int64   `json:"id"`
	Content        string  `json:"content"`
	Author         string  `json:"author"`
	AuthorUsername string  `json:"author_username"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	Image          *string `json:"image"`
	Video          *string `json:"video"`
	ProfilePic     *string `json:"profile_pic"`
}

// postToResponse builds the read representation; videos are pointed at their mp4 rendition.
func (h *Handler) postToResponse(ctx context.Context, post domain.Post) PostResponse {
	resp := PostResponse{
		ID:             post.ID,
		Content:        post.Content,
		Author:         post.AuthorUsername,
		AuthorUsername: post.AuthorUsername,
		CreatedAt:      post.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      post.UpdatedAt.Format(time.RFC3339),
		Image:          optional(post.Image),
		ProfilePic:     optional(post.AuthorProfilePic),
	}
	if post.Video != "" {
		video, err := h.media.Transform(ctx, post.Video, videoFormat)
		if err != nil {
			h.logger.WithError(err).WithField("post_id", post.ID).Warn("video transform failed, serving original")
			video = post.Video
		}
		resp.Video = &video
	}
	return resp
}

type CommentResponse struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	UserID    int64  `json:"user_id"`
	Post      int64  `json:"post"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		User:      comment.AuthorUsername,
		UserID:    comment.AuthorID,
		Post:      comment.PostID,
		Message:   comment.Message,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}
}

type LikeResponse struct {
	ID        int64  `json:"id"`
	Post      int64  `json:"post"`
	User      string `json:"user"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

func likeToResponse(like domain.Like) LikeResponse {
	return LikeResponse{
		ID:        like.ID,
		Post:      like.PostID,
		User:      like.Username,
		UserID:    like.UserID,
		CreatedAt: like.CreatedAt.Format(time.RFC3339),
	}
}

type FollowResponse struct {
	ID                int64  `json:"id"`
	Follower          int64  `json:"follower"`
	FollowerUsername  string `json:"follower_username,omitempty"`
	Following         int64  `json:"following"`
	FollowingUsername string `json:"following_username,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func followToResponse(follow domain.Follow) FollowResponse {
	resp := FollowResponse{
		ID:                follow.ID,
		Follower:          follow.FollowerID,
		FollowerUsername:  follow.FollowerUsername,
		Following:         follow.FollowedID,
		FollowingUsername: follow.FollowedUsername,
	}
	if !follow.CreatedOn.IsZero() {
		resp.CreatedAt = follow.CreatedOn.Format("2006-01-02")
	}
	return resp
}

type ToggleResponse struct {
	Created bool            `json:"created,omitempty"`
	Removed bool            `json:"removed,omitempty"`
	Message string          `json:"message"`
	Follow  *FollowResponse `json:"follow,omitempty"`
}

type UserResponse struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	ProfilePic *string `json:"profile_pic"`
	DateJoined string  `json:"date_joined"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ProfilePic: optional(user.ProfilePic),
		DateJoined: user.CreatedAt.Format(time.RFC3339),
	}
}

type TokenResponse struct {
	Access           string `json:"access"`
	Refresh          string `json:"refresh,omitempty"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
