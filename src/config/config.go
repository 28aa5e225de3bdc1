package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string
	JWTSecret    string
	APITokenTTL  time.Duration

	DefaultCurrency string

	// Blockchain data source.
	BlockchainAPI  string // "toshi" or "insight"
	ToshiBaseURL   string
	InsightBaseURL string
	AddrTxLimit    int

	// Price oracle.
	PriceAPI          string // "btcaverage" or "bitcoincom"
	BTCAverageBaseURL string
	BitcoinComBaseURL string
	CurrentPriceTTL   time.Duration
	PriceHistoryTTL   time.Duration

	HTTPTimeout        time.Duration
	UpstreamRPS        float64
	UpstreamBurst      int
	MaxUploadSizeBytes int64
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", err)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "insecure-development-api-secret-at-least-32-bytes!")
	if jwtSecret == "insecure-development-api-secret-at-least-32-bytes!" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}
	if len(jwtSecret) < 32 {
		log.Fatalf("FATAL: JWT_SECRET must be at least 32 bytes long. Current length: %d", len(jwtSecret))
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	upstreamRPS, err := strconv.ParseFloat(getEnv("UPSTREAM_RPS", "4"), 64)
	if err != nil || upstreamRPS <= 0 {
		log.Printf("WARNING: Invalid UPSTREAM_RPS, using default 4. Error: %v", err)
		upstreamRPS = 4
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./bitgains.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		JWTSecret:    jwtSecret,
		APITokenTTL:  getEnvAsDuration("API_TOKEN_TTL", 168*time.Hour),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),

		BlockchainAPI:  getEnv("BLOCKCHAIN_API", "toshi"),
		ToshiBaseURL:   getEnv("TOSHI_BASE_URL", "https://bitcoin.toshi.io"),
		InsightBaseURL: getEnv("INSIGHT_BASE_URL", "https://insight.bitpay.com"),
		AddrTxLimit:    getEnvAsInt("ADDR_TX_LIMIT", 1000),

		PriceAPI:          getEnv("PRICE_API", "btcaverage"),
		BTCAverageBaseURL: getEnv("BTCAVERAGE_BASE_URL", "https://apiv2.bitcoinaverage.com"),
		BitcoinComBaseURL: getEnv("BITCOINCOM_BASE_URL", "https://index-api.bitcoin.com"),
		CurrentPriceTTL:   getEnvAsDuration("CURRENT_PRICE_TTL", time.Hour),
		PriceHistoryTTL:   getEnvAsDuration("PRICE_HISTORY_TTL", 12*time.Hour),

		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 20*time.Second),
		UpstreamRPS:        upstreamRPS,
		UpstreamBurst:      getEnvAsInt("UPSTREAM_BURST", 8),
		MaxUploadSizeBytes: maxUploadSizeBytes,
	}

	switch Cfg.BlockchainAPI {
	case "toshi", "insight":
	default:
		log.Fatalf("FATAL: BLOCKCHAIN_API must be 'toshi' or 'insight', got '%s'", Cfg.BlockchainAPI)
	}
	switch Cfg.PriceAPI {
	case "btcaverage", "bitcoincom":
	default:
		log.Fatalf("FATAL: PRICE_API must be 'btcaverage' or 'bitcoincom', got '%s'", Cfg.PriceAPI)
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BlockchainAPI=%s, PriceAPI=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BlockchainAPI, Cfg.PriceAPI)
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
