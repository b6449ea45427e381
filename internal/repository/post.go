package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"postboard/internal/model"
)

const selectPost = `
	SELECT id, user_id, first_name, last_name, user_name, avatar, created_at, text_of_post, likes, comments
	FROM posts
`

// postRow is a posts table row. Likes and comments are JSONB documents.
type postRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	UserName   string    `db:"user_name"`
	Avatar     string    `db:"avatar"`
	CreatedAt  time.Time `db:"created_at"`
	TextOfPost string    `db:"text_of_post"`
	Likes      []byte    `db:"likes"`
	Comments   []byte    `db:"comments"`
}

func (row *postRow) toModel() (*model.Post, error) {
	post := &model.Post{
		ID:         row.ID,
		User:       row.UserID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		UserName:   row.UserName,
		Avatar:     row.Avatar,
		Date:       row.CreatedAt,
		TextOfPost: row.TextOfPost,
	}
	if err := json.Unmarshal(row.Likes, &post.Likes); err != nil {
		return nil, fmt.Errorf("decode likes of post %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Comments, &post.Comments); err != nil {
		return nil, fmt.Errorf("decode comments of post %s: %w", row.ID, err)
	}
	post.Normalize()
	return post, nil
}

type postRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new Postgres post repository
func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post document.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	post.ID = uuid.NewString()
	post.Normalize()

	likes, comments, err := encodeCollections(post)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (id, user_id, first_name, last_name, user_name, avatar, created_at, text_of_post, likes, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb)
	`
	_, err = r.db.ExecContext(ctx, query,
		post.ID,
		post.User,
		post.FirstName,
		post.LastName,
		post.UserName,
		post.Avatar,
		post.Date,
		post.TextOfPost,
		likes,
		comments,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, selectPost+` WHERE id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return row.toModel()
}

// List returns every post in insertion order.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	return r.selectPosts(ctx, selectPost+` ORDER BY seq`)
}

// ListByUser returns a user's posts in insertion order.
func (r *postRepository) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return r.selectPosts(ctx, selectPost+` WHERE user_id = $1 ORDER BY seq`, userID)
}

func (r *postRepository) selectPosts(ctx context.Context, query string, args ...interface{}) ([]model.Post, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for i := range rows {
		post, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// AddLike prepends a like inside a row-locking transaction.
func (r *postRepository) AddLike(ctx context.Context, postID string, like model.Like) (*model.Post, error) {
	return r.mutate(ctx, postID, func(post *model.Post) error {
		return prependLike(post, like)
	})
}

// AddComment prepends a comment inside a row-locking transaction.
func (r *postRepository) AddComment(ctx context.Context, postID string, comment model.Comment) (*model.Comment, error) {
	var added model.Comment
	_, err := r.mutate(ctx, postID, func(post *model.Post) error {
		added = prependComment(post, comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// AddCommentLike prepends a like to one comment inside a row-locking transaction.
func (r *postRepository) AddCommentLike(ctx context.Context, postID, commentID string, like model.Like) error {
	_, err := r.mutate(ctx, postID, func(post *model.Post) error {
		return prependCommentLike(post, commentID, like)
	})
	return err
}

// mutate loads the post with SELECT ... FOR UPDATE, applies fn and writes the
// collections back in the same transaction. Concurrent mutations of one post
// serialize on the row lock instead of overwriting each other.
func (r *postRepository) mutate(ctx context.Context, postID string, fn func(*model.Post) error) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row postRow
	err = tx.GetContext(ctx, &row, selectPost+` WHERE id = $1 FOR UPDATE`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock post: %w", err)
	}

	post, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if err := fn(post); err != nil {
		return nil, err
	}

	likes, comments, err := encodeCollections(post)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET likes = $2::jsonb, comments = $3::jsonb WHERE id = $1`,
		postID, likes, comments,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return post, nil
}

// encodeCollections renders likes and comments as JSON text. lib/pq sends []byte
// parameters as bytea, so the documents go over the wire as strings.
func encodeCollections(post *model.Post) (string, string, error) {
	likes, err := json.Marshal(post.Likes)
	if err != nil {
		return "", "", fmt.Errorf("encode likes: %w", err)
	}
	comments, err := json.Marshal(post.Comments)
	if err != nil {
		return "", "", fmt.Errorf("encode comments: %w", err)
	}
	return string(likes), string(comments), nil
}
