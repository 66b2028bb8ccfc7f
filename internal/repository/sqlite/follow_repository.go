package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

const dateLayout = "2006-01-02"

const createFollowsTable = `
CREATE TABLE IF NOT EXISTS follows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	follower_id INTEGER NOT NULL,
	followed_id INTEGER NOT NULL,
	created_on TEXT NOT NULL,
	UNIQUE(follower_id, followed_id),
	CHECK(follower_id <> followed_id),
	FOREIGN KEY(follower_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(followed_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_follows_followed_id ON follows(followed_id);
`

const selectFollows = `
SELECT f.id, f.follower_id, f.followed_id, f.created_on, fu.username, tu.username
FROM follows f
JOIN users fu ON fu.id = f.follower_id
JOIN users tu ON tu.id = f.followed_id`

type FollowRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) repository.FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFollowsTable); err != nil {
		return fmt.Errorf("create follows table: %w", err)
	}
	return nil
}

func (r *FollowRepository) Insert(ctx context.Context, followerID, followedID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO follows (follower_id, followed_id, created_on)
VALUES (?, ?, ?)`,
		followerID,
		followedID,
		time.Now().UTC().Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert follow: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("follow last insert id: %w", err)
	}
	return id, nil
}

func (r *FollowRepository) Remove(ctx context.Context, followerID, followedID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id=? AND followed_id=?`, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("follow delete rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *FollowRepository) Get(ctx context.Context, id int64) (*domain.Follow, error) {
	row := r.db.QueryRowContext(ctx, selectFollows+` WHERE f.id = ?`, id)
	return scanFollow(row)
}

func (r *FollowRepository) ListFollowers(ctx context.Context, userID int64, page repository.Page) ([]domain.Follow, error) {
	return r.list(ctx, `f.followed_id = ?`, userID, page)
}

func (r *FollowRepository) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, `followed_id = ?`, userID)
}

func (r *FollowRepository) ListFollowing(ctx context.Context, userID int64, page repository.Page) ([]domain.Follow, error) {
	return r.list(ctx, `f.follower_id = ?`, userID, page)
}

func (r *FollowRepository) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, `follower_id = ?`, userID)
}

func (r *FollowRepository) list(ctx context.Context, cond string, userID int64, page repository.Page) ([]domain.Follow, error) {
	limit, offset := limitOffset(page)
	rows, err := r.db.QueryContext(ctx, selectFollows+`
WHERE `+cond+`
ORDER BY f.id DESC
LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	follows := []domain.Follow{}
	for rows.Next() {
		follow, err := scanFollow(rows)
		if err != nil {
			return nil, err
		}
		follows = append(follows, *follow)
	}
	return follows, rows.Err()
}

func (r *FollowRepository) count(ctx context.Context, cond string, userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM follows WHERE `+cond, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}

func scanFollow(row interface {
	Scan(dest ...any) error
}) (*domain.Follow, error) {
	var (
		follow    domain.Follow
		createdOn string
	)
	if err := row.Scan(
		&follow.ID,
		&follow.FollowerID,
		&follow.FollowedID,
		&createdOn,
		&follow.FollowerUsername,
		&follow.FollowedUsername,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("follow: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan follow: %w", err)
	}
	day, err := time.Parse(dateLayout, createdOn)
	if err != nil {
		return nil, fmt.Errorf("parse follow date %q: %w", createdOn, err)
	}
	follow.CreatedOn = day
	return &follow, nil
}
