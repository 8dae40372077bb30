package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr           string
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	MinPasswordLen int
}

func Load() Config {
	addr := envString("CAMPFIRE_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	cfg := Config{
		Addr:           addr,
		DBPath:         envString("CAMPFIRE_DB", "campfire.db"),
		JWTSecret:      envString("CAMPFIRE_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:       envDuration("CAMPFIRE_TOKEN_TTL", 24*time.Hour),
		BcryptCost:     envInt("CAMPFIRE_BCRYPT_COST", 10),
		MinPasswordLen: envInt("CAMPFIRE_MIN_PASSWORD_LEN", 6),
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
