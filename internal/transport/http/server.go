package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/handler"
	"postboard/internal/queue"
	"postboard/internal/redis"
	"postboard/internal/repository"
	"postboard/internal/service"
	"postboard/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run loads configuration, opens the configured store and serves the API
// until SIGINT or SIGTERM.
func Run(envFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Open Store
	users, posts, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Activity Stream (optional)
	var (
		activity  = queue.NewActivity(nil)
		consumer  queue.Consumer
		redisConn *redis.Client
	)
	if cfg.RedisURL != "" {
		redisConn, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisConn.Close()
		activity = queue.NewActivity(queue.NewPublisher(redisConn.Client))
		consumer = queue.NewConsumer(redisConn.Client)
	} else {
		log.Println("REDIS_URL not set, activity events disabled")
	}

	// 4. Services
	authService := service.NewAuthService(cfg.JWTSecret, time.Duration(cfg.TokenTTLSeconds)*time.Second)
	userService := service.NewUserService(users, authService, activity)
	postService := service.NewPostService(posts, users, activity)

	// 5. Worker
	var manager *worker.Manager
	if consumer != nil {
		var mirror worker.AvatarMirror
		if cfg.MediaEnabled() {
			mediaService, err := service.NewMediaService(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to init media service: %w", err)
			}
			mirror = mediaService
		}
		manager = worker.NewManager(consumer, worker.NewHandler(mirror, userService), worker.DefaultManagerConfig())
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	// 6. Router
	router := NewRouter(RouterConfig{
		UserHandler:    handler.NewUserHandler(userService),
		PostHandler:    handler.NewPostHandler(postService),
		TokenVerifier:  authService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on :%s (store=%s)", cfg.ServerPort, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore connects the backend selected by STORE_DRIVER and returns its
// repositories with a function releasing the connection.
func openStore(ctx context.Context, cfg *config.Config) (repository.UserRepository, repository.PostRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Println("Using in-memory store; data is lost on exit")
		store := repository.NewMemoryStore()
		return store.Users(), store.Posts(), func() {}, nil

	case config.StoreDriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := repository.EnsureMongoUserIndexes(ctx, db); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		if err := repository.EnsureMongoPostIndexes(ctx, db); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return repository.NewMongoUserRepository(db), repository.NewMongoPostRepository(db), closeFn, nil

	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return repository.NewUserRepository(db), repository.NewPostRepository(db), func() { db.Close() }, nil
	}
}
