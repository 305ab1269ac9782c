package infrastructures

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DATABASE_URL   string
	REDIS_ADDRESS  string
	REDIS_PASSWORD string
	JWT_SECRET     string
	PORT           string

	// Business policy flags the engine does not infer on its own.
	ALLOW_NEGATIVE_STOCK             bool
	ALLOW_ADJUSTMENT_ON_DELETED_ITEM bool
}

var Config *AppConfig

func LoadConfig() *AppConfig {
	godotenv.Load()

	Config = &AppConfig{
		DATABASE_URL:                     os.Getenv("DATABASE_URL"),
		REDIS_ADDRESS:                    os.Getenv("REDIS_ADDRESS"),
		REDIS_PASSWORD:                   os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:                       os.Getenv("JWT_SECRET"),
		PORT:                             getEnv("PORT", "8080"),
		ALLOW_NEGATIVE_STOCK:             getEnvBool("ALLOW_NEGATIVE_STOCK", true),
		ALLOW_ADJUSTMENT_ON_DELETED_ITEM: getEnvBool("ALLOW_ADJUSTMENT_ON_DELETED_ITEM", false),
	}

	return Config
}

// GetConfig returns the loaded configuration for dependency injection.
func GetConfig() *AppConfig {
	if Config == nil {
		return LoadConfig()
	}
	return Config
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
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
