package infra

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "OUTPUT_DIR", "CATALOG_PATH",
		"DEFAULT_MODEL", "DEFAULT_RESOLUTION", "DEFAULT_DURATION_SECONDS", "DEFAULT_FPS",
		"DIFFUSION_ENDPOINT", "MAX_FRAMES", "FTP_HOST", "FTP_PORT", "FTP_REMOTE_DIR",
		"ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppEnv != "development" || cfg.Port != "8080" {
		t.Fatalf("AppEnv = %q, Port = %q", cfg.AppEnv, cfg.Port)
	}
	if cfg.Model != "cogvideox-2b" || cfg.Resolution != "480p" {
		t.Fatalf("Model = %q, Resolution = %q", cfg.Model, cfg.Resolution)
	}
	if cfg.Duration != 10 || cfg.FPS != 8 {
		t.Fatalf("Duration = %d, FPS = %d", cfg.Duration, cfg.FPS)
	}
	if cfg.MaxFrames != 1800 {
		t.Fatalf("MaxFrames = %d", cfg.MaxFrames)
	}
	if cfg.FTPPort != 21 || cfg.FTPRemoteDir != "/videos" {
		t.Fatalf("FTPPort = %d, FTPRemoteDir = %q", cfg.FTPPort, cfg.FTPRemoteDir)
	}
	if cfg.FTPTimeout != 30*time.Second {
		t.Fatalf("FTPTimeout = %v", cfg.FTPTimeout)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_MODEL", "cogvideox-5b")
	t.Setenv("DEFAULT_RESOLUTION", "720p")
	t.Setenv("MAX_FRAMES", "240")
	t.Setenv("DIFFUSION_ENDPOINT", "http://render.internal:9000")
	t.Setenv("DIFFUSION_TIMEOUT", "5m")
	t.Setenv("FTP_HOST", "ftp.example.com")
	t.Setenv("FTP_PORT", "2121")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppEnv != "production" || cfg.Port != "9090" {
		t.Fatalf("AppEnv = %q, Port = %q", cfg.AppEnv, cfg.Port)
	}
	if cfg.Model != "cogvideox-5b" || cfg.Resolution != "720p" {
		t.Fatalf("Model = %q, Resolution = %q", cfg.Model, cfg.Resolution)
	}
	if cfg.MaxFrames != 240 {
		t.Fatalf("MaxFrames = %d", cfg.MaxFrames)
	}
	if cfg.DiffusionEndpoint != "http://render.internal:9000" || cfg.DiffusionTimeout != 5*time.Minute {
		t.Fatalf("DiffusionEndpoint = %q, DiffusionTimeout = %v", cfg.DiffusionEndpoint, cfg.DiffusionTimeout)
	}
	if cfg.FTPHost != "ftp.example.com" || cfg.FTPPort != 2121 {
		t.Fatalf("FTPHost = %q, FTPPort = %d", cfg.FTPHost, cfg.FTPPort)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_FRAMES", "not-a-number")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxFrames != 1800 {
		t.Fatalf("MaxFrames = %d, want fallback 1800", cfg.MaxFrames)
	}
}
