package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhixinliu/medichat/backend/internal/config"
	"github.com/zhixinliu/medichat/backend/internal/handler"
	"github.com/zhixinliu/medichat/backend/internal/model/article"
	"github.com/zhixinliu/medichat/backend/internal/model/session"
	"github.com/zhixinliu/medichat/backend/internal/service/ai"
	"github.com/zhixinliu/medichat/backend/internal/service/chat"
	"github.com/zhixinliu/medichat/backend/internal/service/places"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	articleStore := article.LoadFile(cfg.Articles.Path)
	sessionStore := newSessionStore(ctx, cfg.Session)

	var aiSvc *ai.Service
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI, cfg.Triage)
		if err != nil {
			log.Printf("warning: failed to initialize assistant service: %v", err)
			log.Println("continuing without assistant functionality")
		} else {
			log.Println("assistant service initialized successfully")
		}
	} else {
		log.Println("no completion credentials configured, skipping assistant initialization")
	}

	var responder chat.Responder
	if aiSvc != nil {
		responder = aiSvc
	}
	chatSvc := chat.NewService(sessionStore, responder, cfg.Triage)
	placesSvc := places.NewService(cfg.Places)

	if cfg.Places.APIKey == "" {
		log.Println("no maps credentials configured, travel-time enrichment disabled")
	}

	router := handler.NewRouter(articleStore, chatSvc, aiSvc, placesSvc)

	startServer(ctx, cfg.Server, router)
}

// newSessionStore prefers Redis when configured and falls back to the
// in-memory store when the connection cannot be verified.
func newSessionStore(ctx context.Context, cfg config.SessionConfig) session.Store {
	if !cfg.RedisEnabled() {
		log.Println("using in-memory session store")
		return session.NewMemoryStore()
	}

	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Printf("warning: redis unreachable at %s, falling back to in-memory sessions: %v", cfg.RedisAddr, err)
		return session.NewMemoryStore()
	}

	log.Printf("using redis session store at %s", cfg.RedisAddr)
	return store
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("medichat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
