package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Point assignment policies for newly created setoran records.
const (
	SetoranPointsOnReview   = "review"
	SetoranPointsOnCreation = "creation"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Media       MediaConfig
	Setoran     SetoranConfig
	Achievement AchievementConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MediaConfig configures the audio upload path.
type MediaConfig struct {
	CloudName       string
	UploadPreset    string
	UploadTimeout   time.Duration
	StagingDir      string
	StagingTTL      time.Duration
	CleanupInterval time.Duration
	MaxFileSize     int64
}

// SetoranConfig governs submission point assignment.
//
// PointsPolicy decides whether poin is written at creation time or left to
// the reviewing teacher ("review" keeps it at zero until acceptance).
type SetoranConfig struct {
	PointsPolicy  string
	DefaultPoints int
}

// AchievementConfig tunes caching of read-side achievement summaries.
type AchievementConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUploadSize := v.GetInt64("MEDIA_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 25 * 1024 * 1024
	}
	cfg.Media = MediaConfig{
		CloudName:       v.GetString("MEDIA_CLOUD_NAME"),
		UploadPreset:    v.GetString("MEDIA_UPLOAD_PRESET"),
		UploadTimeout:   parseDuration(v.GetString("MEDIA_UPLOAD_TIMEOUT"), 60*time.Second),
		StagingDir:      v.GetString("MEDIA_STAGING_DIR"),
		StagingTTL:      parseDuration(v.GetString("MEDIA_STAGING_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("MEDIA_CLEANUP_INTERVAL"), 30*time.Minute),
		MaxFileSize:     maxUploadSize,
	}

	policy := v.GetString("SETORAN_POINTS_POLICY")
	if policy != SetoranPointsOnCreation {
		policy = SetoranPointsOnReview
	}
	cfg.Setoran = SetoranConfig{
		PointsPolicy:  policy,
		DefaultPoints: v.GetInt("SETORAN_DEFAULT_POINTS"),
	}

	cfg.Achievement = AchievementConfig{
		CacheEnabled: v.GetBool("ENABLE_ACHIEVEMENT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ACHIEVEMENT_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tahfidz")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATIONS_DIR", "db/migrations")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "tahfidz-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MEDIA_CLOUD_NAME", "")
	v.SetDefault("MEDIA_UPLOAD_PRESET", "audio_upload")
	v.SetDefault("MEDIA_UPLOAD_TIMEOUT", "60s")
	v.SetDefault("MEDIA_STAGING_DIR", "./staging")
	v.SetDefault("MEDIA_STAGING_TTL", "1h")
	v.SetDefault("MEDIA_CLEANUP_INTERVAL", "30m")
	v.SetDefault("MEDIA_MAX_FILE_SIZE", 25*1024*1024)

	v.SetDefault("SETORAN_POINTS_POLICY", SetoranPointsOnReview)
	v.SetDefault("SETORAN_DEFAULT_POINTS", 10)

	v.SetDefault("ENABLE_ACHIEVEMENT_CACHE", false)
	v.SetDefault("ACHIEVEMENT_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
