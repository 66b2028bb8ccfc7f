package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	video TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(author_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
`

const selectPosts = `
SELECT p.id, p.author_id, p.content, p.image, p.video, p.created_at, p.updated_at, u.username, u.profile_pic
FROM posts p
JOIN users u ON u.id = p.author_id`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (author_id, content, image, video, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		post.AuthorID,
		post.Content,
		post.Image,
		post.Video,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPosts+` WHERE p.id = ?`, id)
	return scanPost(row)
}

// Update applies the non-nil fields of changes and always bumps updated_at.
func (r *PostRepository) Update(ctx context.Context, id int64, changes domain.PostChanges) error {
	sets := []string{}
	args := []any{}
	if changes.Content != nil {
		sets = append(sets, "content=?")
		args = append(args, *changes.Content)
	}
	if changes.Image != nil {
		sets = append(sets, "image=?")
		args = append(args, *changes.Image)
	}
	if changes.Video != nil {
		sets = append(sets, "video=?")
		args = append(args, *changes.Video)
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE posts SET %s WHERE id=?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return affectedOrNotFound(res, "update post")
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return affectedOrNotFound(res, "delete post")
}

func (r *PostRepository) List(ctx context.Context, filter repository.PostFilter, page repository.Page) ([]domain.Post, error) {
	where, args := postWhere(filter)
	limit, offset := limitOffset(page)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, selectPosts+where+`
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	where, args := postWhere(filter)
	var n int64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM posts p
JOIN users u ON u.id = p.author_id`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func postWhere(filter repository.PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.AuthorUsername != "" {
		conds = append(conds, "u.username = ?")
		args = append(args, filter.AuthorUsername)
	}
	if filter.Search != "" {
		// instr avoids LIKE wildcard escaping; lower() folds ASCII only
		q := strings.ToLower(filter.Search)
		conds = append(conds, "(instr(lower(p.content), ?) > 0 OR instr(lower(u.username), ?) > 0)")
		args = append(args, q, q)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.Image,
		&post.Video,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.AuthorUsername,
		&post.AuthorProfilePic,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}
