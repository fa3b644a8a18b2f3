package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment
type Config struct {
	Port          string
	DatabaseURL   string // sqlite DSN; empty selects the flat-file store
	HighScoreFile string
	ClientDir     string
	LogFile       string
	LogDebug      bool
	AdminUser     string
	AdminPassword string
	JWTSecret     string
}

// LoadConfig reads an optional .env file and then the process environment.
// A missing .env is not an error; the returned flag reports whether one was loaded.
func LoadConfig() (Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := Config{
		Port:          envOr("PORT", "3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		HighScoreFile: envOr("HIGHSCORE_FILE", "highscores.json"),
		ClientDir:     envOr("CLIENT_DIR", "client"),
		LogFile:       os.Getenv("LOG_FILE"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}
	if v, err := strconv.ParseBool(os.Getenv("LOG_DEBUG")); err == nil {
		cfg.LogDebug = v
	}
	return cfg, loaded
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
