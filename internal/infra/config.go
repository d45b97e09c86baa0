package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	OutputDir   string
	CatalogPath string

	Model      string
	Resolution string
	Duration   int
	FPS        int

	DiffusionEndpoint string
	DiffusionAPIKey   string
	DiffusionTimeout  time.Duration

	MaxFrames      int
	LowMemoryBytes uint64

	FTPHost      string
	FTPPort      int
	FTPUser      string
	FTPPassword  string
	FTPRemoteDir string
	FTPTimeout   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	AllowedOrigins   []string
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. A .env file is honored when present so local runs do
// not need to export credentials by hand.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		OutputDir:   getEnv("OUTPUT_DIR", "outputs"),
		CatalogPath: getEnv("CATALOG_PATH", "outputs/catalog.db"),

		Model:      getEnv("DEFAULT_MODEL", "cogvideox-2b"),
		Resolution: getEnv("DEFAULT_RESOLUTION", "480p"),
		Duration:   getEnvInt("DEFAULT_DURATION_SECONDS", 10),
		FPS:        getEnvInt("DEFAULT_FPS", 8),

		DiffusionEndpoint: os.Getenv("DIFFUSION_ENDPOINT"),
		DiffusionAPIKey:   os.Getenv("DIFFUSION_API_KEY"),
		DiffusionTimeout:  getEnvDuration("DIFFUSION_TIMEOUT", 30*time.Minute),

		MaxFrames:      getEnvInt("MAX_FRAMES", 1800),
		LowMemoryBytes: uint64(getEnvInt64("LOW_MEMORY_BYTES", 0)),

		FTPHost:      os.Getenv("FTP_HOST"),
		FTPPort:      getEnvInt("FTP_PORT", 21),
		FTPUser:      os.Getenv("FTP_USER"),
		FTPPassword:  os.Getenv("FTP_PASSWORD"),
		FTPRemoteDir: getEnv("FTP_REMOTE_DIR", "/videos"),
		FTPTimeout:   getEnvDuration("FTP_TIMEOUT", 30*time.Second),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		AllowedOrigins:   splitAndTrim(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
