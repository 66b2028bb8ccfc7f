package domain

import "time"

// Post is a piece of authored content, optionally carrying an image and a video.
type Post struct {
	ID        int64
	AuthorID  int64
	Content   string
	Image     string
	Video     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Read-side joins, filled by queries.
	AuthorUsername   string
	AuthorProfilePic string
}

// PostChanges is a partial update; nil fields are left untouched.
type PostChanges struct {
	Content *string
	Image   *string
	Video   *string
}

// Comment is a message left by a user on a post.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Message   string
	CreatedAt time.Time

	AuthorUsername string
}
