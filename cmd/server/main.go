package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commentform/backend/internal/config"
	"github.com/commentform/backend/internal/handler"
	"github.com/commentform/backend/internal/logging"
	"github.com/commentform/backend/internal/repository"
	"github.com/commentform/backend/internal/service"
)

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		logging.Fatal("load config", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		logging.Fatal("failed to open comment store", "error", err)
	}
	defer store.Close()

	commentService := service.NewCommentService(store)

	h := handler.New(store, cfg.FrontendURL)
	commentHandler := handler.NewCommentHandler(commentService)
	pageHandler := handler.NewPageHandler(commentService)

	commentLimiter := handler.NewRateLimiter(cfg.CommentRateLimit)
	defer commentLimiter.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)

	// Comment API: the comment form posts its JSON snapshot here.
	mux.Handle("POST "+handler.CommentAction, commentLimiter.Middleware(http.HandlerFunc(commentHandler.Create)))
	mux.HandleFunc("GET "+handler.CommentAction, commentHandler.List)
	mux.HandleFunc("GET "+handler.CommentAction+"/{id}", commentHandler.Get)

	// Entry pages host the comment form and load the form module.
	mux.HandleFunc("GET /entries/{id}", pageHandler.Entry)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "postgres", cfg.UsesPostgres())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// openStore connects to PostgreSQL when DATABASE_URL is a postgres URL and
// opens a SQLite file otherwise.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	if cfg.UsesPostgres() {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repository.NewPgCommentRepository(pool), nil
	}
	return repository.OpenSqlite(ctx, cfg.DatabaseURL)
}
