package model

import (
	"errors"
	"time"
)

// User represents an account document.
type User struct {
	ID        string    `db:"id" bson:"_id" json:"_id"`
	FirstName string    `db:"first_name" bson:"firstName" json:"firstName"`
	LastName  string    `db:"last_name" bson:"lastName" json:"lastName"`
	UserName  string    `db:"user_name" bson:"userName" json:"userName"`
	Email     string    `db:"email" bson:"email" json:"email"`
	Avatar    string    `db:"avatar" bson:"avatar" json:"avatar"`
	Password  string    `db:"password" bson:"password" json:"-"` // bcrypt hash, never serialized
	Date      time.Time `db:"created_at" bson:"date" json:"date"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required" msg:"First name is needed"`
	LastName  string `json:"lastName" validate:"required" msg:"Last name is needed"`
	Email     string `json:"email" validate:"required,email" msg:"Email address is needed"`
	UserName  string `json:"userName" validate:"required" msg:"Please create a username"`
	Password  string `json:"password" validate:"min=6,max=12" msg:"Password must contain at least 6 characters and no more than 12"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Email address is needed"`
	Password string `json:"password" validate:"min=6,max=12" msg:"Password must contain at least 6 characters and no more than 12"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
}

type SearchUserRequest struct {
	UserNameFromSearch string `json:"userNameFromSearch" validate:"required" msg:"Search is empty"`
}

type ChangeUserDataRequest struct {
	ChangeUserData string `json:"changeUserData" validate:"required" msg:"Input is empty"`
}

type CheckPasswordRequest struct {
	PasswordCheck string `json:"passwordCheck" validate:"min=6,max=12" msg:"Password has to be between 6 to 12 characters"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"min=6,max=12" msg:"New password must contain at least 6 characters and no more than 12"`
}

// Profile fields that may be changed through the change-user-data endpoint.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldUserName  = "userName"
	FieldEmail     = "email"
)

// Stored fields only the server writes.
const (
	FieldAvatar   = "avatar"
	FieldPassword = "password"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering with an email that already has an account
	ErrEmailTaken = errors.New("email address has already been created")

	// ErrUsernameTaken is returned when a username belongs to another account
	ErrUsernameTaken = errors.New("username has already been taken")

	// ErrInvalidCredentials is returned when a presented password does not match the stored hash
	ErrInvalidCredentials = errors.New("passwords do not match")

	// ErrSameValue is returned when a profile update would not change anything
	ErrSameValue = errors.New("this is the same information we already have stored")
)
