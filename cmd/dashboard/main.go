package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/shantoai/studio/internal/auth"
	"github.com/shantoai/studio/internal/blobstore"
	"github.com/shantoai/studio/internal/config"
	"github.com/shantoai/studio/internal/imagen"
	"github.com/shantoai/studio/internal/notify"
	"github.com/shantoai/studio/internal/server"
	"github.com/shantoai/studio/internal/service"
	"github.com/shantoai/studio/internal/state"
	"github.com/shantoai/studio/internal/storage"
	"github.com/shantoai/studio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	blobs, err := openBlobStore(cfg)
	if err != nil {
		log.Fatalf("state backend: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := state.New(logr)
	store.OnCommit(func(snap state.Snapshot) {
		data, err := state.Encode(snap)
		if err != nil {
			logr.Error("encode state", "err", err)
			return
		}
		if err := blobs.Save(context.Background(), data); err != nil {
			logr.Error("persist state", "err", err)
		}
	})
	store.Dispatch(state.Initialize{Snapshot: loadSnapshot(ctx, logr, blobs)})

	authService := auth.NewService(store, logr, cfg.AdminEmail, cfg.AdminPassword)
	generationService := service.NewGenerationService(logr, store, imagen.NewClient(cfg, logr))
	paymentService := service.NewPaymentService(logr, store, buildNotifier(cfg, logr))
	settingsService := service.NewSettingsService(logr, store)

	var uploader server.QRUploader
	if cfg.S3Configured() {
		up, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		uploader = up
	}

	srv := server.NewServer(cfg.ListenAddr, logr, authService, generationService, paymentService, settingsService, uploader)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}

func openBlobStore(cfg config.Config) (blobstore.Store, error) {
	switch cfg.StateBackend {
	case "redis":
		return blobstore.NewRedisStore(cfg.RedisAddr, cfg.StateKey)
	case "mysql":
		return blobstore.NewMySQLStore(cfg.MySQLDSN, cfg.StateKey)
	default:
		return blobstore.NewFileStore(cfg.StatePath)
	}
}

// loadSnapshot restores durable state. A missing or corrupt blob is
// not fatal; the dashboard starts over from defaults.
func loadSnapshot(ctx context.Context, logr *slog.Logger, blobs blobstore.Store) state.Snapshot {
	data, err := blobs.Load(ctx)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			logr.Warn("load state failed, starting from defaults", "err", err)
		}
		return state.Defaults()
	}
	snap, err := state.Decode(data)
	if err != nil {
		logr.Warn("decode state failed, starting from defaults", "err", err)
		return state.Defaults()
	}
	logr.Info("state restored", "users", len(snap.Users), "payments", len(snap.Payments))
	return snap
}

func buildNotifier(cfg config.Config, logr *slog.Logger) service.Notifier {
	if cfg.TelegramBotToken == "" || cfg.TelegramAdminChatID == 0 {
		return nil
	}
	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logr)
	if err != nil {
		logr.Error("telegram notifier disabled", "err", err)
		return nil
	}
	return tg
}
