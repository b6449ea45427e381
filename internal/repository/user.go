package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postboard/internal/model"
)

const uniqueViolation = "23505"

const selectUser = `
	SELECT id, first_name, last_name, user_name, email, avatar, password, created_at
	FROM users
`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new Postgres user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.NewString()

	query := `
		INSERT INTO users (id, first_name, last_name, user_name, email, avatar, password, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.FirstName,
		u.LastName,
		u.UserName,
		u.Email,
		u.Avatar,
		u.Password,
		u.Date,
	)
	if err != nil {
		if uerr := uniqueUserError(err); uerr != nil {
			return uerr
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", email)
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "user_name", username)
}

// column is always one of the literals above, never user input.
func (r *userRepository) getOne(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, selectUser+` WHERE `+column+` = $1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &u, nil
}

// List returns every user in registration order
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, selectUser+` ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// userColumns maps the updatable fields to their columns.
var userColumns = map[string]string{
	model.FieldFirstName: "first_name",
	model.FieldLastName:  "last_name",
	model.FieldUserName:  "user_name",
	model.FieldEmail:     "email",
	model.FieldAvatar:    "avatar",
	model.FieldPassword:  "password",
}

// UpdateField writes a single column of the user row
func (r *userRepository) UpdateField(ctx context.Context, id, field, value string) error {
	column, ok := userColumns[field]
	if !ok {
		return fmt.Errorf("unknown user field %q", field)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE users SET `+column+` = $2 WHERE id = $1`, id, value)
	if err != nil {
		if uerr := uniqueUserError(err); uerr != nil {
			return uerr
		}
		return fmt.Errorf("failed to update user %s: %w", field, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// uniqueUserError maps a unique violation on users to the matching domain error.
func uniqueUserError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	if pqErr.Constraint == "users_user_name_key" {
		return model.ErrUsernameTaken
	}
	return model.ErrEmailTaken
}
