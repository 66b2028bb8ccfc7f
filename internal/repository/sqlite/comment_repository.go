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

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	message TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY(author_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
CREATE INDEX IF NOT EXISTS idx_comments_author_id ON comments(author_id);
`

const selectComments = `
SELECT c.id, c.post_id, c.author_id, c.message, c.created_at, u.username
FROM comments c
JOIN users u ON u.id = c.author_id`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	comment.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO comments (post_id, author_id, message, created_at)
VALUES (?, ?, ?, ?)`,
		comment.PostID,
		comment.AuthorID,
		comment.Message,
		comment.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("comment last insert id: %w", err)
	}
	comment.ID = id
	return id, nil
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, selectComments+` WHERE c.id = ?`, id)
	return scanComment(row)
}

func (r *CommentRepository) UpdateMessage(ctx context.Context, id int64, message string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET message=? WHERE id=?`, message, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return affectedOrNotFound(res, "update comment")
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return affectedOrNotFound(res, "delete comment")
}

func (r *CommentRepository) List(ctx context.Context, postID int64, page repository.Page) ([]domain.Comment, error) {
	limit, offset := limitOffset(page)
	query := selectComments
	args := []any{}
	if postID > 0 {
		query += ` WHERE c.post_id = ?`
		args = append(args, postID)
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query+`
ORDER BY c.created_at DESC, c.id DESC
LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Count(ctx context.Context, postID int64) (int64, error) {
	var (
		n   int64
		err error
	)
	if postID > 0 {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func scanComment(row interface {
	Scan(dest ...any) error
}) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Message,
		&comment.CreatedAt,
		&comment.AuthorUsername,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &comment, nil
}
