package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

const createLikesTable = `
CREATE TABLE IF NOT EXISTS likes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	post_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(user_id, post_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);
`

type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) repository.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLikesTable); err != nil {
		return fmt.Errorf("create likes table: %w", err)
	}
	return nil
}

func (r *LikeRepository) Insert(ctx context.Context, userID, postID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO likes (user_id, post_id, created_at)
VALUES (?, ?, ?)`,
		userID,
		postID,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert like: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("like last insert id: %w", err)
	}
	return id, nil
}

func (r *LikeRepository) Remove(ctx context.Context, userID, postID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id=? AND post_id=?`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("like delete rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *LikeRepository) ListByPost(ctx context.Context, postID int64, page repository.Page) ([]domain.Like, error) {
	limit, offset := limitOffset(page)
	rows, err := r.db.QueryContext(ctx, `
SELECT l.id, l.user_id, l.post_id, l.created_at, u.username
FROM likes l
JOIN users u ON u.id = l.user_id
WHERE l.post_id = ?
ORDER BY l.created_at ASC, l.id ASC
LIMIT ? OFFSET ?`, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	likes := []domain.Like{}
	for rows.Next() {
		var like domain.Like
		if err := rows.Scan(&like.ID, &like.UserID, &like.PostID, &like.CreatedAt, &like.Username); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

func (r *LikeRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}
