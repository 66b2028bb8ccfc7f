package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"snapgram/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection serializes writers; sqlite only allows one anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// Store bundles the repositories sharing one database handle.
type Store struct {
	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Likes    repository.LikeRepository
	Follows  repository.FollowRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Likes:    NewLikeRepository(db),
		Follows:  NewFollowRepository(db),
	}
}

// Init creates all tables. Parents come first so foreign keys resolve.
func (s *Store) Init(ctx context.Context) error {
	inits := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"user", s.Users.Init},
		{"post", s.Posts.Init},
		{"comment", s.Comments.Init},
		{"like", s.Likes.Init},
		{"follow", s.Follows.Init},
	}
	for _, in := range inits {
		if err := in.fn(ctx); err != nil {
			return fmt.Errorf("init %s repository: %w", in.name, err)
		}
	}
	return nil
}

// classify maps driver constraint failures onto repository errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sqErr *msqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %v", repository.ErrConstraint, err)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrConstraint, err)
	}
	return err
}

func affectedOrNotFound(res sql.Result, what string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}

func limitOffset(page repository.Page) (int, int) {
	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
