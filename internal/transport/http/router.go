package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"postboard/internal/handler"
	"postboard/internal/httputil"
	"postboard/internal/model"
	authmw "postboard/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	TokenVerifier  authmw.TokenVerifier
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", authmw.TokenHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := authmw.AuthMiddleware(cfg.TokenVerifier)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", cfg.UserHandler.Register)
		r.Post("/login", cfg.UserHandler.Login)
		r.Get("/users", cfg.UserHandler.List)
		r.Get("/get_user_by_email/{user_email}", cfg.UserHandler.GetByEmail)
		r.Get("/get_user_by_id/{user_id}", cfg.UserHandler.GetByID)
		r.Put("/search_by_username", cfg.UserHandler.SearchByUsername)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.UserHandler.Me)
			r.Put("/change_user_data/{user_data_to_change}", cfg.UserHandler.ChangeUserData)
			r.Put("/check_actual_password", cfg.UserHandler.CheckPassword)
			r.Put("/change_user_password", cfg.UserHandler.ChangePassword)
		})
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/posts", cfg.PostHandler.List)
		r.Get("/posts_most_liked", cfg.PostHandler.ListSorted(model.SortMostLiked))
		r.Get("/posts/most_recent", cfg.PostHandler.ListSorted(model.SortMostRecent))
		r.Get("/posts/most_commented", cfg.PostHandler.ListSorted(model.SortMostCommented))
		r.Get("/single_post/{post_id}", cfg.PostHandler.GetByID)
		r.Get("/user_posts/{user_id}", cfg.PostHandler.ListByUser)
		r.Put("/search_for_post", cfg.PostHandler.Search)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", cfg.PostHandler.Create)
			r.Get("/user_posts", cfg.PostHandler.ListOwn)
			r.Put("/likes/{post_id}", cfg.PostHandler.Like)
			r.Put("/add_comment/{post_id}", cfg.PostHandler.AddComment)
			r.Put("/like_comment/{post_id}/{comment_id}", cfg.PostHandler.LikeComment)
		})
	})

	return r
}
