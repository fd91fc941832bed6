package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/presence-relay/internal/cache"
	"github.com/thereayou/presence-relay/internal/config"
	"github.com/thereayou/presence-relay/internal/database"
	"github.com/thereayou/presence-relay/internal/handlers"
	"github.com/thereayou/presence-relay/internal/middleware"
	"github.com/thereayou/presence-relay/internal/relay"
	"github.com/thereayou/presence-relay/internal/services"
)

type Server struct {
	Router     *gin.Engine
	HTTP       *http.Server
	Dispatcher *relay.Dispatcher
	Archiver   *services.Archiver
	Redis      *redis.Client
	DB         *database.Database
	log        *slog.Logger
}

func NewServer(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	s := &Server{log: log}

	store, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := relay.Options{
		MaxStoredMessages: cfg.MaxStoredMessages,
		MaxMessageLength:  cfg.MaxMessageLength,
	}
	if store != nil {
		s.Archiver = services.NewArchiver(store, cfg.ArchiveQueueSize, log.With("component", "archiver"))
		opts.Sink = s.Archiver
	}
	s.Dispatcher = relay.NewDispatcher(log.With("component", "dispatcher"), opts)

	if store != nil {
		n, err := services.Hydrate(ctx, store, s.Dispatcher, cfg.MaxStoredMessages)
		if err != nil {
			log.Warn("Failed to load archived messages", "error", err)
		} else {
			log.Info("Message log hydrated", "messages", n)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log.With("component", "http")))

	msgH := handlers.NewMessageHandler(s.Dispatcher, log.With("component", "websocket"))
	wsH := handlers.NewWebSocketHandler(s.Dispatcher, msgH, cfg.SendBufferSize, cfg.CheckOrigin, log.With("component", "websocket"))
	APIEndpoints(router, wsH, handlers.NewHTTPMessageHandler(s.Dispatcher))

	s.Router = router
	s.HTTP = &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	return s, nil
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (services.MessageStore, error) {
	switch cfg.ArchiveDriver {
	case config.ArchiveRedis:
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.Redis = rdb
		return cache.NewRedisStore(rdb, cfg.RedisHistoryKey, cfg.MaxStoredMessages), nil

	case config.ArchivePostgres:
		db := &database.Database{}
		if err := db.Connect(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("postgres connect failed: %w", err)
		}
		s.DB = db
		return db, nil
	}
	return nil, nil
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	if s.Archiver != nil {
		go s.Archiver.Run()
	}
	s.log.Info("Server starting", "addr", s.HTTP.Addr)
	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every socket, then flushes the archive.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.HTTP.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.Dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher: %w", err))
	}
	if s.Archiver != nil {
		if err := s.Archiver.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("archiver: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
