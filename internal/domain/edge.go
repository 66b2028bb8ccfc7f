package domain

import "time"

// Like joins a user to a post. A (user, post) pair exists at most once.
type Like struct {
	ID        int64
	UserID    int64
	PostID    int64
	CreatedAt time.Time

	Username string
}

// Follow is a directed edge from FollowerID to FollowedID.
type Follow struct {
	ID         int64
	FollowerID int64
	FollowedID int64
	CreatedOn  time.Time

	FollowerUsername string
	FollowedUsername string
}

// ToggleResult reports which way a toggle mutation went.
type ToggleResult int

const (
	ToggleCreated ToggleResult = iota + 1
	ToggleRemoved
)

func (r ToggleResult) String() string {
	switch r {
	case ToggleCreated:
		return "created"
	case ToggleRemoved:
		return "removed"
	default:
		return "unknown"
	}
}
