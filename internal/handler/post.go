package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /api/posts/
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.postService.Create(r.Context(), userID, &req); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeValidationOrInternal(w, err, "Create post handler")
		return
	}

	httputil.WriteMessage(w, "Post created")
}

// List handles GET /api/posts/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	h.writePosts(w, posts, err, "List posts handler")
}

// ListSorted returns a handler listing every post in the given order
// (GET /api/posts/posts_most_liked, /posts/most_recent, /posts/most_commented).
func (h *PostHandler) ListSorted(order string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.postService.ListSorted(r.Context(), order)
		h.writePosts(w, posts, err, "List posts "+order+" handler")
	}
}

// GetByID handles GET /api/posts/single_post/{post_id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.GetByID(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeValidationOrInternal(w, err, "Get post handler")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// ListByUser handles GET /api/posts/user_posts/{user_id}
func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
	h.writePosts(w, posts, err, "List user posts handler")
}

// ListOwn handles GET /api/posts/user_posts
func (h *PostHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	posts, err := h.postService.ListByUser(r.Context(), userID)
	h.writePosts(w, posts, err, "List own posts handler")
}

// Search handles PUT /api/posts/search_for_post
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	posts, err := h.postService.Search(r.Context(), &req)
	h.writePosts(w, posts, err, "Search posts handler")
}

func (h *PostHandler) writePosts(w http.ResponseWriter, posts []model.Post, err error, op string) {
	if err != nil {
		writeValidationOrInternal(w, err, op)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Like handles PUT /api/posts/likes/{post_id}
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Like(r.Context(), userID, chi.URLParam(r, "post_id"))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, "You have already liked this post!")
		default:
			writeValidationOrInternal(w, err, "Like post handler")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// AddComment handles PUT /api/posts/add_comment/{post_id}
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.AddCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.postService.AddComment(r.Context(), userID, chi.URLParam(r, "post_id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			writeValidationOrInternal(w, err, "Add comment handler")
		}
		return
	}

	httputil.WriteMessage(w, "Comment has been added")
}

// LikeComment handles PUT /api/posts/like_comment/{post_id}/{comment_id}
func (h *PostHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.postService.LikeComment(r.Context(), userID, chi.URLParam(r, "post_id"), chi.URLParam(r, "comment_id"))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		default:
			writeValidationOrInternal(w, err, "Like comment handler")
		}
		return
	}

	httputil.WriteMessage(w, "Comment is liked")
}
