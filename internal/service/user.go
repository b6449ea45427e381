package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"postboard/internal/model"
	"postboard/internal/queue"
	"postboard/internal/repository"
	"postboard/internal/validation"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 10

// TokenIssuer signs access tokens for a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UserService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	activity *queue.Activity
	now      func() time.Time
}

// NewUserService wires the user store and token issuer. activity may be nil.
func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer, activity *queue.Activity) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		activity: activity,
		now:      time.Now,
	}
}

// Register creates an account and returns a token for it.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return "", model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return "", fmt.Errorf("check email: %w", err)
	}
	if _, err := s.userRepo.GetByUsername(ctx, req.UserName); err == nil {
		return "", model.ErrUsernameTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return "", fmt.Errorf("check username: %w", err)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     req.Email,
		Avatar:    GravatarURL(req.Email),
		Password:  hash,
		Date:      s.now(),
	}
	// Create also reports ErrEmailTaken/ErrUsernameTaken when a concurrent
	// registration wins the race past the checks above.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	log.Printf("[UserService] registered user=%s", user.ID)
	s.activity.Emit(ctx, queue.NewUserRegisteredEvent(user.ID, user.Email))
	return token, nil
}

// Login checks the credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", model.ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// SearchByUsername returns the users whose userName equals the query once both
// are lower-cased and stripped of spaces.
func (s *UserService) SearchByUsername(ctx context.Context, req *model.SearchUserRequest) ([]model.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	query := normalizeSearch(req.UserNameFromSearch)
	matches := []model.User{}
	for _, u := range users {
		if normalizeSearch(u.UserName) == query {
			matches = append(matches, u)
		}
	}
	return matches, nil
}

// profileFields maps the changeable profile fields to their current values.
var profileFields = map[string]func(*model.User) string{
	model.FieldFirstName: func(u *model.User) string { return u.FirstName },
	model.FieldLastName:  func(u *model.User) string { return u.LastName },
	model.FieldUserName:  func(u *model.User) string { return u.UserName },
	model.FieldEmail:     func(u *model.User) string { return u.Email },
}

// ChangeField sets one profile field of the user. Only the fields in
// profileFields can be changed; anything else is a validation error.
func (s *UserService) ChangeField(ctx context.Context, userID, field string, req *model.ChangeUserDataRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	current, ok := profileFields[field]
	if !ok {
		return model.NewValidationError("user_data_to_change", "This field cannot be changed")
	}
	value := req.ChangeUserData
	if field == model.FieldEmail && !validation.IsEmail(value) {
		return model.NewValidationError("changeUserData", "Email address is not valid")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if current(user) == value {
		return model.ErrSameValue
	}

	if err := s.userRepo.UpdateField(ctx, userID, field, value); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// CheckPassword reports ErrInvalidCredentials unless the password matches the stored hash.
func (s *UserService) CheckPassword(ctx context.Context, userID string, req *model.CheckPasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.PasswordCheck)); err != nil {
		return model.ErrInvalidCredentials
	}
	return nil
}

// ChangePassword stores a new salted hash for the user.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateField(ctx, userID, model.FieldPassword, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateAvatar points the user's avatar at avatarURL. Posts and comments keep
// the avatar they were written with.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	if err := s.userRepo.UpdateField(ctx, userID, model.FieldAvatar, avatarURL); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// normalizeSearch lower-cases s and removes every space character.
func normalizeSearch(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}
