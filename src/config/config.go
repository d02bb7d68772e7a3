package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret          string
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// CurrentAccountIBAN designates the club account whose movements count
	// toward financial totals. Movements posted to any other account are
	// stored but excluded from aggregation.
	CurrentAccountIBAN string

	// ScoringWeightsPath optionally points to a YAML file overriding the
	// default relevance scoring weights.
	ScoringWeightsPath string

	// AuditCronSpec schedules the periodic duplicate-link audit pass.
	// Empty disables the schedule; the audit stays available on demand.
	AuditCronSpec string

	KeywordMinLength     int
	AmountTolerancePct   float64
	CandidateCacheExpiry time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", err)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	currentAccount := getEnv("CURRENT_ACCOUNT_IBAN", "")
	if currentAccount == "" {
		log.Println("WARNING: CURRENT_ACCOUNT_IBAN not set. Every stored account will be excluded from financial totals until it is configured.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	tolerancePctStr := getEnv("AMOUNT_TOLERANCE_PCT", "5")
	tolerancePct, err := strconv.ParseFloat(tolerancePctStr, 64)
	if err != nil || tolerancePct < 0 {
		log.Printf("WARNING: Invalid AMOUNT_TOLERANCE_PCT '%s'. Using default 5. Error: %v", tolerancePctStr, err)
		tolerancePct = 5
	}

	Cfg = &AppConfig{
		JWTSecret:          jwtSecret,
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./clubtreso.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		CurrentAccountIBAN: currentAccount,
		ScoringWeightsPath: getEnv("SCORING_WEIGHTS_PATH", ""),
		AuditCronSpec:      getEnv("AUDIT_CRON_SPEC", "0 3 * * *"),

		KeywordMinLength:     getEnvAsInt("KEYWORD_MIN_LENGTH", 4),
		AmountTolerancePct:   tolerancePct,
		CandidateCacheExpiry: getEnvAsDuration("CANDIDATE_CACHE_EXPIRY", 5*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, CurrentAccount=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.CurrentAccountIBAN)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
