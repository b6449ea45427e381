package repository

import (
	"context"

	"postboard/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create assigns user.ID and inserts the document.
	// Returns ErrEmailTaken / ErrUsernameTaken when a unique field collides.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// UpdateField sets one stored field (model.Field*) and leaves the rest of
	// the document untouched. Returns ErrEmailTaken / ErrUsernameTaken on collision.
	UpdateField(ctx context.Context, id, field, value string) error
}

// PostRepository is the post store. Each Add* method is a single atomic
// operation on one post document, so concurrent mutations never drop each other.
type PostRepository interface {
	// Create assigns post.ID and inserts the document.
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// List returns every post in insertion order.
	List(ctx context.Context) ([]model.Post, error)
	ListByUser(ctx context.Context, userID string) ([]model.Post, error)

	// AddLike prepends like to the post's likes unless like.User already liked it
	// (ErrAlreadyLiked). Returns the updated post.
	AddLike(ctx context.Context, postID string, like model.Like) (*model.Post, error)
	// AddComment assigns comment.ID and prepends the comment to the post's comments.
	AddComment(ctx context.Context, postID string, comment model.Comment) (*model.Comment, error)
	// AddCommentLike prepends like to the comment's likes. No duplicate check.
	AddCommentLike(ctx context.Context, postID, commentID string, like model.Like) error
}
