// Package policy decides whether an actor may perform an operation on a resource.
package policy

import (
	"fmt"

	"snapgram/internal/domain"
)

// Operation names an action a handler is about to perform.
type Operation string

const (
	ReadPost      Operation = "post.read"
	CreatePost    Operation = "post.create"
	UpdatePost    Operation = "post.update"
	DeletePost    Operation = "post.delete"
	ReadComment   Operation = "comment.read"
	CreateComment Operation = "comment.create"
	UpdateComment Operation = "comment.update"
	DeleteComment Operation = "comment.delete"
	ReadLikes     Operation = "like.read"
	ToggleLike    Operation = "like.toggle"
	ToggleFollow  Operation = "follow.toggle"
	ReadUsers     Operation = "user.read"
	ReadSelf      Operation = "user.self"
	UpdateSelf    Operation = "user.update"
	DeleteSelf    Operation = "user.delete"
	Register      Operation = "auth.register"
	IssueToken    Operation = "auth.token"
	RefreshToken  Operation = "auth.refresh"
)

// Resource is the target of an owner-gated operation. OwnerID 0 means "no specific resource".
type Resource struct {
	OwnerID int64
}

// Owned returns the resource owned by userID.
func Owned(userID int64) Resource {
	return Resource{OwnerID: userID}
}

// Can returns nil when actor may perform op on res, otherwise an error wrapping
// domain.ErrUnauthenticated or domain.ErrForbidden.
func Can(actor domain.Actor, op Operation, res Resource) error {
	switch op {
	case ReadPost, ReadComment, ReadLikes, ReadUsers, Register, IssueToken, RefreshToken:
		return nil
	case CreatePost, CreateComment, ToggleLike, ToggleFollow, ReadSelf, UpdateSelf, DeleteSelf:
		return requireAuth(actor, op)
	case UpdatePost, DeletePost, UpdateComment, DeleteComment:
		if err := requireAuth(actor, op); err != nil {
			return err
		}
		if res.OwnerID != actor.UserID {
			return fmt.Errorf("%w: only the author may %s", domain.ErrForbidden, verb(op))
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operation %q", domain.ErrForbidden, op)
	}
}

func requireAuth(actor domain.Actor, op Operation) error {
	if !actor.Authenticated() {
		return fmt.Errorf("%w: %s requires a signed-in user", domain.ErrUnauthenticated, op)
	}
	return nil
}

func verb(op Operation) string {
	switch op {
	case UpdatePost:
		return "edit this post"
	case DeletePost:
		return "delete this post"
	case UpdateComment:
		return "edit this comment"
	case DeleteComment:
		return "delete this comment"
	}
	return string(op)
}
