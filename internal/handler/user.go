package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailTaken):
			httputil.WriteConflict(w, "Email address has already been created")
		case errors.Is(err, model.ErrUsernameTaken):
			httputil.WriteConflict(w, "Username has already been taken")
		default:
			writeValidationOrInternal(w, err, "Register handler")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User with this email address hasn't been created yet")
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Passwords do not match!")
		default:
			writeValidationOrInternal(w, err, "Login handler")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// Me handles GET /api/users/
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(r.Context(), userID)
	h.writeUser(w, user, err, "Me handler")
}

// GetByID handles GET /api/users/get_user_by_id/{user_id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "user_id"))
	h.writeUser(w, user, err, "Get user by id handler")
}

// GetByEmail handles GET /api/users/get_user_by_email/{user_email}
func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByEmail(r.Context(), chi.URLParam(r, "user_email"))
	h.writeUser(w, user, err, "Get user by email handler")
}

func (h *UserHandler) writeUser(w http.ResponseWriter, user *model.User, err error, op string) {
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeValidationOrInternal(w, err, op)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// List handles GET /api/users/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeValidationOrInternal(w, err, "List users handler")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// SearchByUsername handles PUT /api/users/search_by_username
func (h *UserHandler) SearchByUsername(w http.ResponseWriter, r *http.Request) {
	var req model.SearchUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	users, err := h.userService.SearchByUsername(r.Context(), &req)
	if err != nil {
		writeValidationOrInternal(w, err, "Search users handler")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// ChangeUserData handles PUT /api/users/change_user_data/{user_data_to_change}
func (h *UserHandler) ChangeUserData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChangeUserDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.userService.ChangeField(r.Context(), userID, chi.URLParam(r, "user_data_to_change"), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrSameValue):
			httputil.WriteConflict(w, "This is the same information we already have stored")
		case errors.Is(err, model.ErrEmailTaken):
			httputil.WriteConflict(w, "Email address has already been created")
		case errors.Is(err, model.ErrUsernameTaken):
			httputil.WriteConflict(w, "Username has already been taken")
		default:
			writeValidationOrInternal(w, err, "Change user data handler")
		}
		return
	}

	httputil.WriteMessage(w, "Data is changed")
}

// CheckPassword handles PUT /api/users/check_actual_password
func (h *UserHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CheckPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.CheckPassword(r.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Password does not match")
		default:
			writeValidationOrInternal(w, err, "Check password handler")
		}
		return
	}

	httputil.WriteMessage(w, "Success!")
}

// ChangePassword handles PUT /api/users/change_user_password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, &req); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeValidationOrInternal(w, err, "Change password handler")
		return
	}

	httputil.WriteMessage(w, "Success!")
}
