package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"resona/internal/api"
	"resona/internal/config"
	"resona/internal/engine"
	"resona/internal/media"
	"resona/internal/player"
	"resona/internal/provider"
	"resona/internal/server"
	"resona/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Msg("starting resona")

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	snapshot, err := storage.NewSnapshotStore(cfg.Snapshot.Path, cfg.Snapshot.Capacity, time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize snapshot store")
	}
	defer snapshot.Close()

	prov := setupProvider(cfg.Provider, logger)
	if prov != nil {
		defer prov.Close()
	}

	scanner := media.NewScanner(prov, logger)
	resolver := player.NewResolver(store, logger)
	metadata := media.NewMetadataLoader(prov, logger)

	var lifecycle player.Lifecycle = player.NopLifecycle{}
	var presence *server.Presence
	if cfg.Server.Presence {
		presence = server.NewPresence(cfg.Library.Name, cfg.Server.Port, logger)
		defer presence.Shutdown()
		lifecycle = presence
	}

	manager := player.NewManager(
		scanner,
		resolver,
		snapshot,
		metadata,
		func() engine.Engine { return engine.NewClockEngine() },
		lifecycle,
		cfg.Player,
		logger,
	)
	defer manager.Release()

	// Fold crash-time snapshot positions into the durable store before
	// anything resumes.
	manager.ReconcileSnapshots()

	go logSaveEvents(manager, logger)

	srv := server.New(cfg, logger, manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")
		cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("server stopped")
}

func setupProvider(cfg config.ProviderConfig, logger zerolog.Logger) provider.Provider {
	switch cfg.Type {
	case "sftp":
		p := provider.NewSFTPProvider(provider.SFTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err := p.Connect(); err != nil {
			logger.Warn().Err(err).Msg("sftp provider unavailable, tree scans disabled")
			return nil
		}
		logger.Info().Str("host", cfg.Host).Msg("sftp provider connected")
		return p
	case "smb":
		p := provider.NewSMBProvider(provider.SMBConfig{
			Host:     cfg.Host,
			Share:    cfg.Share,
			Username: cfg.Username,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		})
		if err := p.Connect(); err != nil {
			logger.Warn().Err(err).Msg("smb provider unavailable, tree scans disabled")
			return nil
		}
		logger.Info().Str("host", cfg.Host).Str("share", cfg.Share).Msg("smb provider connected")
		return p
	default:
		return nil
	}
}

func logSaveEvents(manager *player.Manager, logger zerolog.Logger) {
	for ev := range manager.SaveEvents() {
		logger.Info().
			Str("file", ev.DisplayName).
			Int64("position_ms", ev.PositionMs).
			Bool("auto", ev.IsAutoSave).
			Msg("memory saved")
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
