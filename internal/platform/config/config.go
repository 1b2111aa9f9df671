package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string
	JWTKey   []byte
	JWTExp   time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionChannel       string
	VerificationTokenTTL time.Duration
	StoreIdleTTL         time.Duration
	StoreReloadDelay     time.Duration
	AvatarURLTemplate    string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:              getEnv("API_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		JWTKey:               []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:               time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "user"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBName:               getEnv("DB_NAME", "algo_answer_hub_db"),
		DBSslMode:            getEnv("DB_SSLMODE", "disable"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		SessionChannel:       getEnv("SESSION_EVENT_CHANNEL", "session_events"),
		VerificationTokenTTL: time.Duration(getEnvAsInt("VERIFICATION_TOKEN_TTL_HOURS", 24)) * time.Hour,
		StoreIdleTTL:         time.Duration(getEnvAsInt("STORE_IDLE_TTL_MINUTES", 30)) * time.Minute,
		StoreReloadDelay:     time.Duration(getEnvAsInt("STORE_RELOAD_DELAY_MS", 1000)) * time.Millisecond,
		AvatarURLTemplate:    getEnv("AVATAR_URL_TEMPLATE", "https://ui-avatars.com/api/?name=%s&background=random"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
