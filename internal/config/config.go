package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the dashboard core and
// its collaborators.
type Config struct {
	ListenAddr string
	LogLevel   string

	// Reserved administrator credential pair. Authenticates to a
	// privileged identity that never appears in the users collection.
	AdminEmail    string
	AdminPassword string

	// State persistence backend: file (default), redis or mysql.
	StateBackend string
	StatePath    string
	StateKey     string
	RedisAddr    string
	MySQLDSN     string

	// External image-generation API.
	ImageGenBaseURL string
	ImageGenAPIKey  string
	ImageGenModel   string
	RequestTimeout  time.Duration

	// Optional S3 uploader for QR-code images.
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string

	// Optional Telegram notifications for admins.
	TelegramBotToken    string
	TelegramAdminChatID int64
}

// Load reads configuration from environment variables, applying sane
// defaults. A .env file is honored when present but not required.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StateBackend:        getEnv("STATE_BACKEND", "file"),
		StatePath:           getEnv("STATE_PATH", filepath.Join("data", "shanto-ai-state.json")),
		StateKey:            getEnv("STATE_KEY", "shanto-ai-state"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		ImageGenBaseURL:     getEnv("IMAGEGEN_BASE_URL", "https://api.kie.ai"),
		ImageGenModel:       getEnv("IMAGEGEN_MODEL", "flux-2/pro-text-to-image"),
		RequestTimeout:      time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 120)),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            os.Getenv("S3_REGION"),
		S3AccessKey:         os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:         os.Getenv("S3_SECRET_KEY"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:     os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:      getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:            getEnv("S3_PREFIX", "qr"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID: getInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
	}

	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.ImageGenAPIKey = os.Getenv("IMAGEGEN_API_KEY")

	var missing []string
	if cfg.AdminEmail == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	if cfg.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if cfg.ImageGenAPIKey == "" {
		missing = append(missing, "IMAGEGEN_API_KEY")
	}
	switch cfg.StateBackend {
	case "file":
		if cfg.StatePath == "" {
			missing = append(missing, "STATE_PATH")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case "mysql":
		if cfg.MySQLDSN == "" {
			missing = append(missing, "MYSQL_DSN")
		}
	default:
		return Config{}, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// S3Configured reports whether the optional QR uploader can run.
func (c Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3PublicBaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No env file is fine; the environment itself may carry everything.
	return nil
}
