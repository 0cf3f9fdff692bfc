package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"resona/internal/api"
	"resona/internal/config"
	"resona/internal/player"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	handler    *api.Handler
}

func New(cfg *config.Config, logger zerolog.Logger, manager *player.Manager) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	s.router = chi.NewRouter()
	s.handler = api.NewHandler(manager, logger)
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handler.Health)

		r.Post("/library/scan", s.handler.Scan)
		r.Post("/library/scan/diagnostic", s.handler.ScanDiagnostic)
		r.Post("/library/browse", s.handler.Browse)

		r.Get("/player", s.handler.GetState)
		r.Post("/player/load/folder", s.handler.LoadFolder)
		r.Post("/player/load/files", s.handler.LoadFiles)
		r.Post("/player/load/uris", s.handler.LoadURIs)
		r.Post("/player/play", s.handler.Play)
		r.Post("/player/pause", s.handler.Pause)
		r.Post("/player/seek", s.handler.Seek)
		r.Post("/player/play-at", s.handler.PlayAt)
		r.Post("/player/next", s.handler.Next)
		r.Post("/player/previous", s.handler.Previous)
		r.Post("/player/mode/toggle", s.handler.ToggleMode)
		r.Post("/player/audiobook-mode", s.handler.SetAudiobookMode)
		r.Post("/player/save", s.handler.SaveMemory)

		r.Get("/memories/continue", s.handler.ContinueListening)
		r.Delete("/memories", s.handler.DeleteMemory)
		r.Post("/memories/clear", s.handler.ClearMemories)

		r.Post("/bookmarks", s.handler.AddBookmark)
		r.Get("/bookmarks", s.handler.GetBookmarks)
		r.Delete("/bookmarks/{id}", s.handler.DeleteBookmark)
	})
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
