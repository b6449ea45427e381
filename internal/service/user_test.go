package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"postboard/internal/model"
	"postboard/internal/repository"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	listFn          func(ctx context.Context) ([]model.User, error)
	updateFieldFn   func(ctx context.Context, id, field, value string) error

	createCalls []*model.User
	updateCalls []fieldUpdate
}

type fieldUpdate struct {
	id, field, value string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = "new-user"
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.User{}, nil
}

func (m *mockUserRepository) UpdateField(ctx context.Context, id, field, value string) error {
	m.updateCalls = append(m.updateCalls, fieldUpdate{id: id, field: field, value: value})
	if m.updateFieldFn != nil {
		return m.updateFieldFn(ctx, id, field, value)
	}
	return nil
}

type stubIssuer struct {
	err    error
	issued []string
}

func (s *stubIssuer) Issue(userID string) (string, error) {
	s.issued = append(s.issued, userID)
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + userID, nil
}

func validRegisterRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		UserName:  "ada",
		Password:  "secret1",
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	// ARRANGE
	repo := &mockUserRepository{}
	issuer := &stubIssuer{}
	svc := NewUserService(repo, issuer, nil)
	req := validRegisterRequest()

	// ACT
	token, err := svc.Register(context.Background(), req)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token != "token-for-new-user" {
		t.Errorf("token = %q, want token-for-new-user", token)
	}
	if len(repo.createCalls) != 1 {
		t.Fatalf("Create called %d times, want 1", len(repo.createCalls))
	}

	created := repo.createCalls[0]
	if created.Password == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}
	if cost, _ := bcrypt.Cost([]byte(created.Password)); cost != PasswordCost {
		t.Errorf("bcrypt cost = %d, want %d", cost, PasswordCost)
	}
	if created.Avatar != GravatarURL(req.Email) {
		t.Errorf("avatar = %q, want gravatar url", created.Avatar)
	}
	if created.Date.IsZero() {
		t.Error("registration date should be set")
	}
}

func TestUserService_Register_Conflicts(t *testing.T) {
	existing := &model.User{ID: "u1"}

	tests := []struct {
		name    string
		repo    *mockUserRepository
		wantErr error
	}{
		{
			name: "email taken",
			repo: &mockUserRepository{
				getByEmailFn: func(ctx context.Context, email string) (*model.User, error) { return existing, nil },
			},
			wantErr: model.ErrEmailTaken,
		},
		{
			name: "username taken",
			repo: &mockUserRepository{
				getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) { return existing, nil },
			},
			wantErr: model.ErrUsernameTaken,
		},
		{
			name: "lost race on insert",
			repo: &mockUserRepository{
				createFn: func(ctx context.Context, user *model.User) error { return model.ErrEmailTaken },
			},
			wantErr: model.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := &stubIssuer{}
			svc := NewUserService(tt.repo, issuer, nil)

			_, err := svc.Register(context.Background(), validRegisterRequest())

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(issuer.issued) != 0 {
				t.Error("no token should be issued on conflict")
			}
		})
	}
}

func TestUserService_Register_ValidationRunsBeforeStore(t *testing.T) {
	storeHit := false
	repo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			storeHit = true
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{Email: "not-an-email", Password: "123"})

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	params := map[string]bool{}
	for _, fe := range verr.Errors {
		params[fe.Param] = true
	}
	for _, p := range []string{"firstName", "lastName", "email", "userName", "password"} {
		if !params[p] {
			t.Errorf("missing validation error for %s (got %+v)", p, verr.Errors)
		}
	}
	if storeHit {
		t.Error("store must not be touched when validation fails")
	}
}

func TestUserService_Register_StoreError(t *testing.T) {
	dbError := errors.New("connection refused")
	repo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) { return nil, dbError },
	}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())

	if !errors.Is(err, dbError) {
		t.Errorf("error should wrap the store error, got %v", err)
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	stored := &model.User{ID: "u1", Email: "ada@example.com", Password: hashed(t, "secret1")}

	tests := []struct {
		name      string
		req       *model.LoginRequest
		getByMail func(ctx context.Context, email string) (*model.User, error)
		wantErr   error
		wantToken string
	}{
		{
			name:      "successful login",
			req:       &model.LoginRequest{Email: "ada@example.com", Password: "secret1"},
			getByMail: func(ctx context.Context, email string) (*model.User, error) { return stored, nil },
			wantToken: "token-for-u1",
		},
		{
			name:    "unknown email",
			req:     &model.LoginRequest{Email: "nobody@example.com", Password: "secret1"},
			wantErr: model.ErrUserNotFound,
		},
		{
			name:      "wrong password",
			req:       &model.LoginRequest{Email: "ada@example.com", Password: "wrong12"},
			getByMail: func(ctx context.Context, email string) (*model.User, error) { return stored, nil },
			wantErr:   model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(&mockUserRepository{getByEmailFn: tt.getByMail}, &stubIssuer{}, nil)

			token, err := svc.Login(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestUserService_Login_PasswordLength(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &stubIssuer{}, nil)

	for _, pw := range []string{"12345", "1234567890123"} {
		_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: pw})
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("password %q: error = %v, want validation error", pw, err)
		}
	}
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestUserService_SearchByUsername(t *testing.T) {
	repo := &mockUserRepository{
		listFn: func(ctx context.Context) ([]model.User, error) {
			return []model.User{
				{ID: "1", UserName: "Ada Lovelace"},
				{ID: "2", UserName: "grace"},
				{ID: "3", UserName: "adalovelace"},
			}, nil
		},
	}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	users, err := svc.SearchByUsername(context.Background(), &model.SearchUserRequest{UserNameFromSearch: "ADA lovelace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].ID != "1" || users[1].ID != "3" {
		t.Errorf("matches = %+v, want users 1 and 3", users)
	}

	users, _ = svc.SearchByUsername(context.Background(), &model.SearchUserRequest{UserNameFromSearch: "nobody"})
	if users == nil || len(users) != 0 {
		t.Errorf("no match should give an empty list, got %#v", users)
	}
}

// =============================================================================
// CHANGE FIELD TESTS
// =============================================================================

func TestUserService_ChangeField(t *testing.T) {
	current := func() *model.User {
		return &model.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", UserName: "ada", Email: "ada@example.com"}
	}

	tests := []struct {
		name       string
		field      string
		value      string
		updateErr  error
		wantErr    error
		wantVErr   bool
		wantUpdate bool
	}{
		{name: "first name", field: model.FieldFirstName, value: "Augusta", wantUpdate: true},
		{name: "email", field: model.FieldEmail, value: "augusta@example.com", wantUpdate: true},
		{name: "same value", field: model.FieldUserName, value: "ada", wantErr: model.ErrSameValue},
		{name: "unknown field", field: "password", value: "hunter22", wantVErr: true},
		{name: "id is not changeable", field: "_id", value: "x", wantVErr: true},
		{name: "invalid email", field: model.FieldEmail, value: "nope", wantVErr: true},
		{name: "empty value", field: model.FieldLastName, value: "", wantVErr: true},
		{name: "username owned by someone else", field: model.FieldUserName, value: "grace", updateErr: model.ErrUsernameTaken, wantErr: model.ErrUsernameTaken, wantUpdate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepository{
				getByIDFn: func(ctx context.Context, id string) (*model.User, error) { return current(), nil },
				updateFieldFn: func(ctx context.Context, id, field, value string) error { return tt.updateErr },
			}
			svc := NewUserService(repo, &stubIssuer{}, nil)

			err := svc.ChangeField(context.Background(), "u1", tt.field, &model.ChangeUserDataRequest{ChangeUserData: tt.value})

			var verr *model.ValidationError
			switch {
			case tt.wantVErr:
				if !errors.As(err, &verr) {
					t.Errorf("error = %v, want validation error", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			}

			if got := len(repo.updateCalls) > 0; got != tt.wantUpdate {
				t.Fatalf("update called = %v, want %v", got, tt.wantUpdate)
			}
			if tt.wantUpdate {
				want := fieldUpdate{id: "u1", field: tt.field, value: tt.value}
				if repo.updateCalls[0] != want {
					t.Errorf("update = %+v, want %+v", repo.updateCalls[0], want)
				}
			}
		})
	}
}

func TestUserService_ChangeField_UserGone(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &stubIssuer{}, nil)

	err := svc.ChangeField(context.Background(), "ghost", model.FieldFirstName, &model.ChangeUserDataRequest{ChangeUserData: "X"})
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

// =============================================================================
// PASSWORD TESTS
// =============================================================================

func TestUserService_CheckPassword(t *testing.T) {
	repo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Password: hashed(t, "secret1")}, nil
		},
	}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	if err := svc.CheckPassword(context.Background(), "u1", &model.CheckPasswordRequest{PasswordCheck: "secret1"}); err != nil {
		t.Errorf("matching password: %v", err)
	}
	err := svc.CheckPassword(context.Background(), "u1", &model.CheckPasswordRequest{PasswordCheck: "secret2"})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := &mockUserRepository{}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	if err := svc.ChangePassword(context.Background(), "u1", &model.ChangePasswordRequest{NewPassword: "newpass1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.updateCalls) != 1 || repo.updateCalls[0].field != model.FieldPassword {
		t.Fatalf("updates = %+v, want one password write", repo.updateCalls)
	}
	saved := repo.updateCalls[0].value
	if bcrypt.CompareHashAndPassword([]byte(saved), []byte("newpass1")) != nil {
		t.Error("new password was not hashed and stored")
	}

	repo.updateFieldFn = func(ctx context.Context, id, field, value string) error { return model.ErrUserNotFound }
	err := svc.ChangePassword(context.Background(), "ghost", &model.ChangePasswordRequest{NewPassword: "newpass1"})
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestUserService_UpdateAvatar(t *testing.T) {
	repo := &mockUserRepository{}
	svc := NewUserService(repo, &stubIssuer{}, nil)

	if err := svc.UpdateAvatar(context.Background(), "u1", "https://cdn.example.com/a.jpg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fieldUpdate{id: "u1", field: model.FieldAvatar, value: "https://cdn.example.com/a.jpg"}
	if len(repo.updateCalls) != 1 || repo.updateCalls[0] != want {
		t.Errorf("updates = %+v, want [%+v]", repo.updateCalls, want)
	}
}

// interleavingUsers runs afterRead once, right after the first GetByID returns.
type interleavingUsers struct {
	repository.UserRepository
	afterRead func()
}

func (r *interleavingUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := r.UserRepository.GetByID(ctx, id)
	if r.afterRead != nil {
		fn := r.afterRead
		r.afterRead = nil
		fn()
	}
	return u, err
}

func TestUserService_ProfileChangeAndAvatarWriteBothSurvive(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	ada := &model.User{FirstName: "Ada", LastName: "Lovelace", UserName: "ada", Email: "ada@example.com", Avatar: GravatarURL("ada@example.com")}
	if err := store.Users().Create(ctx, ada); err != nil {
		t.Fatalf("create: %v", err)
	}

	const mirrored = "https://cdn.example.com/avatars/x.jpg"
	users := &interleavingUsers{UserRepository: store.Users()}
	svc := NewUserService(users, &stubIssuer{}, nil)

	// The avatar write lands between the profile change's read and its write.
	users.afterRead = func() {
		if err := svc.UpdateAvatar(ctx, ada.ID, mirrored); err != nil {
			t.Errorf("update avatar: %v", err)
		}
	}
	if err := svc.ChangeField(ctx, ada.ID, model.FieldFirstName, &model.ChangeUserDataRequest{ChangeUserData: "Augusta"}); err != nil {
		t.Fatalf("change field: %v", err)
	}

	// And the other way round: a profile change between two avatar writes.
	if err := svc.UpdateAvatar(ctx, ada.ID, mirrored+"?v=2"); err != nil {
		t.Fatalf("update avatar: %v", err)
	}

	got, _ := store.Users().GetByID(ctx, ada.ID)
	if got.FirstName != "Augusta" || got.Avatar != mirrored+"?v=2" {
		t.Errorf("firstName=%q avatar=%q, want both writes kept", got.FirstName, got.Avatar)
	}
	if got.Password != ada.Password || got.Email != ada.Email {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestGravatarURL(t *testing.T) {
	// md5("myemailaddress@example.com")
	want := "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?s=200&r=pg&d=mm"
	if got := GravatarURL("  MyEmailAddress@example.com "); got != want {
		t.Errorf("GravatarURL = %q, want %q", got, want)
	}
	if !strings.HasPrefix(GravatarURL("x@y.z"), gravatarBase) {
		t.Error("unexpected base url")
	}
}
