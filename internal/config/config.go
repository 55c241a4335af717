package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Upload      UploadConfig
	Translation TranslationConfig
	Vision      VisionConfig
	Speech      SpeechConfig
	Storage     StorageConfig
	R2          R2Config
	Fonts       FontsConfig
	Worker      WorkerConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig enables optional bearer tokens carrying the premium claim.
type AuthConfig struct {
	Enabled bool
	Secret  string
}

type RateLimitConfig struct {
	ImagePerMin int
	AudioPerMin int
	DocsPerHour int
}

type UploadConfig struct {
	MaxSizeMB        int
	PremiumMaxSizeMB int
}

// TranslationConfig points at an OpenAI-compatible chat completions API.
type TranslationConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	VisionModel      string
	Timeout          time.Duration
	ChunkSize        int
	ChunkOverlap     int
	ChunkConcurrency int
	CellConcurrency  int
	SlideConcurrency int
	DefaultLanguage  string
}

type VisionConfig struct {
	APIKey  string
	BaseURL string
}

type SpeechConfig struct {
	APIKey  string
	BaseURL string
}

type StorageConfig struct {
	Driver          string // local | r2
	OutputDir       string
	Retention       time.Duration
	CleanupSchedule string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type FontsConfig struct {
	Dir string
}

type WorkerConfig struct {
	Concurrency int
	Queue       string
	MaxRetry    int
	TaskTimeout time.Duration
	Retention   time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("TRANSLATION_API_KEY")
	readSecret("GOOGLE_VISION_API_KEY")
	readSecret("GOOGLE_SPEECH_API_KEY")
	readSecret("AUTH_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	_ = viper.BindEnv("auth.secret", "AUTH_SECRET")
	_ = viper.BindEnv("upload.max_size_mb", "UPLOAD_MAX_SIZE_MB")
	_ = viper.BindEnv("upload.premium_max_size_mb", "UPLOAD_PREMIUM_MAX_SIZE_MB")
	_ = viper.BindEnv("translation.api_key", "TRANSLATION_API_KEY")
	_ = viper.BindEnv("translation.base_url", "TRANSLATION_BASE_URL")
	_ = viper.BindEnv("translation.model", "TRANSLATION_MODEL")
	_ = viper.BindEnv("translation.vision_model", "TRANSLATION_VISION_MODEL")
	_ = viper.BindEnv("translation.default_language", "DEFAULT_TARGET_LANGUAGE")
	_ = viper.BindEnv("vision.api_key", "GOOGLE_VISION_API_KEY")
	_ = viper.BindEnv("speech.api_key", "GOOGLE_SPEECH_API_KEY")
	_ = viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = viper.BindEnv("storage.output_dir", "OUTPUT_DIR")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("fonts.dir", "FONTS_DIR")
	_ = viper.BindEnv("worker.concurrency", "WORKER_CONCURRENCY")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("ratelimit.image_per_min", 20)
	viper.SetDefault("ratelimit.audio_per_min", 10)
	viper.SetDefault("ratelimit.docs_per_hour", 60)
	viper.SetDefault("upload.max_size_mb", 10)
	viper.SetDefault("upload.premium_max_size_mb", 50)

	viper.SetDefault("translation.base_url", "https://api.openai.com/v1")
	viper.SetDefault("translation.model", "gpt-4o-mini")
	viper.SetDefault("translation.vision_model", "gpt-4o")
	viper.SetDefault("translation.timeout", "120s")
	viper.SetDefault("translation.chunk_size", 4000)
	viper.SetDefault("translation.chunk_overlap", 200)
	viper.SetDefault("translation.chunk_concurrency", 10)
	viper.SetDefault("translation.cell_concurrency", 10)
	viper.SetDefault("translation.slide_concurrency", 5)
	viper.SetDefault("translation.default_language", "Vietnamese")

	viper.SetDefault("vision.base_url", "https://vision.googleapis.com/v1")
	viper.SetDefault("speech.base_url", "https://speech.googleapis.com/v1p1beta1")

	viper.SetDefault("storage.driver", "local")
	viper.SetDefault("storage.output_dir", "./outputs")
	viper.SetDefault("storage.retention", "24h")
	viper.SetDefault("storage.cleanup_schedule", "@every 1h")

	viper.SetDefault("fonts.dir", "./fonts")

	viper.SetDefault("worker.concurrency", 5)
	viper.SetDefault("worker.queue", "translation")
	viper.SetDefault("worker.max_retry", 0)
	viper.SetDefault("worker.task_timeout", "0s")
	viper.SetDefault("worker.retention", "24h")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Enabled: viper.GetBool("auth.enabled"),
			Secret:  viper.GetString("auth.secret"),
		},
		RateLimit: RateLimitConfig{
			ImagePerMin: viper.GetInt("ratelimit.image_per_min"),
			AudioPerMin: viper.GetInt("ratelimit.audio_per_min"),
			DocsPerHour: viper.GetInt("ratelimit.docs_per_hour"),
		},
		Upload: UploadConfig{
			MaxSizeMB:        viper.GetInt("upload.max_size_mb"),
			PremiumMaxSizeMB: viper.GetInt("upload.premium_max_size_mb"),
		},
		Translation: TranslationConfig{
			APIKey:           viper.GetString("translation.api_key"),
			BaseURL:          viper.GetString("translation.base_url"),
			Model:            viper.GetString("translation.model"),
			VisionModel:      viper.GetString("translation.vision_model"),
			Timeout:          viper.GetDuration("translation.timeout"),
			ChunkSize:        viper.GetInt("translation.chunk_size"),
			ChunkOverlap:     viper.GetInt("translation.chunk_overlap"),
			ChunkConcurrency: viper.GetInt("translation.chunk_concurrency"),
			CellConcurrency:  viper.GetInt("translation.cell_concurrency"),
			SlideConcurrency: viper.GetInt("translation.slide_concurrency"),
			DefaultLanguage:  viper.GetString("translation.default_language"),
		},
		Vision: VisionConfig{
			APIKey:  viper.GetString("vision.api_key"),
			BaseURL: viper.GetString("vision.base_url"),
		},
		Speech: SpeechConfig{
			APIKey:  viper.GetString("speech.api_key"),
			BaseURL: viper.GetString("speech.base_url"),
		},
		Storage: StorageConfig{
			Driver:          viper.GetString("storage.driver"),
			OutputDir:       viper.GetString("storage.output_dir"),
			Retention:       viper.GetDuration("storage.retention"),
			CleanupSchedule: viper.GetString("storage.cleanup_schedule"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Fonts: FontsConfig{
			Dir: viper.GetString("fonts.dir"),
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("worker.concurrency"),
			Queue:       viper.GetString("worker.queue"),
			MaxRetry:    viper.GetInt("worker.max_retry"),
			TaskTimeout: viper.GetDuration("worker.task_timeout"),
			Retention:   viper.GetDuration("worker.retention"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the pipeline cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Translation.APIKey == "" {
		errs = append(errs, errors.New("translation.api_key is required"))
	}
	if c.Translation.BaseURL == "" {
		errs = append(errs, errors.New("translation.base_url is required"))
	}
	if c.Translation.Model == "" {
		errs = append(errs, errors.New("translation.model is required"))
	}
	if c.Translation.ChunkSize <= 0 || c.Translation.ChunkOverlap < 0 || c.Translation.ChunkOverlap >= c.Translation.ChunkSize {
		errs = append(errs, fmt.Errorf("invalid chunking: size=%d overlap=%d", c.Translation.ChunkSize, c.Translation.ChunkOverlap))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.Queue == "" {
		errs = append(errs, errors.New("worker.queue is required"))
	}
	switch c.Storage.Driver {
	case "local":
	case "r2":
		if c.R2.BucketName == "" || c.R2.AccountID == "" {
			errs = append(errs, errors.New("r2.account_id and r2.bucket_name are required for the r2 storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
