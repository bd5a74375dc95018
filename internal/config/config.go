package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string

	JWTSecret string
	JWTTTL    time.Duration

	// Optional Redis; empty addr disables cache and background tasks.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Legacy backend (import source)
	LegacyBaseURL string
	LegacyToken   string

	// Chapa payments
	ChapaBaseURL   string
	ChapaSecretKey string
	CallbackBase   string

	// SMTP (empty host -> file sender)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	EmailLogFile string
	ContactEmail string

	// Entitlement knobs
	StandardQuotationLimit int
	VerificationValidDays  int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		DBDSN:    getenv("DB_DSN", "conmart.db"),
		MediaDir: getenv("MEDIA_DIR", "./media"),
		LogFile:  getenv("LOG_FILE", "./conmart.log"),

		JWTSecret: getenv("JWT_SECRET", "dev-only-secret-change-me"),
		JWTTTL:    getdur("JWT_TTL", 7*24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		CacheTTL:      getdur("CACHE_TTL", 5*time.Minute),

		LegacyBaseURL: os.Getenv("LEGACY_BASE_URL"),
		LegacyToken:   os.Getenv("LEGACY_API_TOKEN"),

		ChapaBaseURL:   getenv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
		ChapaSecretKey: os.Getenv("CHAPA_SECRET_KEY"),
		CallbackBase:   getenv("CALLBACK_BASE_URL", "http://localhost:8080"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@conmart.local"),
		EmailLogFile: getenv("EMAIL_LOG_FILE", "./emails.log"),
		ContactEmail: getenv("CONTACT_EMAIL", "info@conmart.local"),

		StandardQuotationLimit: getint("STANDARD_TIER_QUOTATION_LIMIT", 10),
		VerificationValidDays:  getint("VERIFICATION_VALID_DAYS", 365),
	}

	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s REDIS=%q LEGACY=%q",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.RedisAddr, cfg.LegacyBaseURL)
	return cfg
}
