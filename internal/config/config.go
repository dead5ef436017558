package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Workers
	WorkerCount int

	// Retention
	RetentionDays int
	RetentionCron string

	// Frontend
	FrontendURL string

	Search SearchConfig
}

// SearchConfig holds everything a batch run needs. The CLI loads only this.
type SearchConfig struct {
	CookieFile        string
	PrimaryLanguages  []string
	FallbackLanguages []string
	RequestsPerMinute int
	RequestTimeout    time.Duration
	MaxReferences     int
}

// LanguageAttempts is the ordered language policy for transcript selection.
func (c SearchConfig) LanguageAttempts() [][]string {
	attempts := make([][]string, 0, 2)
	if len(c.PrimaryLanguages) > 0 {
		attempts = append(attempts, c.PrimaryLanguages)
	}
	if len(c.FallbackLanguages) > 0 {
		attempts = append(attempts, c.FallbackLanguages)
	}
	return attempts
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Env:           getEnvOrDefault("ENV", "development"),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		RedisURL:      mustGetEnv("REDIS_URL"),
		JWTSecret:     mustGetEnv("JWT_SECRET"),
		WorkerCount:   getEnvAsIntOrDefault("WORKER_COUNT", 2),
		RetentionDays: getEnvAsIntOrDefault("SEARCH_RETENTION_DAYS", 7),
		RetentionCron: getEnvOrDefault("RETENTION_CRON", "0 30 3 * * *"),
		FrontendURL:   getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		Search:        loadSearch(),
	}

	return cfg
}

// LoadSearch reads only the search settings; nothing is required.
func LoadSearch() SearchConfig {
	godotenv.Load()
	return loadSearch()
}

func loadSearch() SearchConfig {
	return SearchConfig{
		CookieFile:        getEnvOrDefault("YOUTUBE_COOKIE_FILE", ""),
		PrimaryLanguages:  getEnvAsLanguagesOrDefault("CAPTION_LANGUAGES", []string{"ja", "en", "en-US"}),
		FallbackLanguages: getEnvAsLanguagesOrDefault("CAPTION_FALLBACK_LANGUAGES", []string{"ja", "en"}),
		RequestsPerMinute: getEnvAsIntOrDefault("YOUTUBE_REQUESTS_PER_MINUTE", 60),
		RequestTimeout:    time.Duration(getEnvAsIntOrDefault("YOUTUBE_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxReferences:     getEnvAsIntOrDefault("MAX_REFERENCES_PER_SEARCH", 200),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsLanguagesOrDefault parses a comma-separated list of BCP 47 codes.
// Codes are kept as written since caption tracks are matched verbatim;
// unparsable codes are dropped.
func getEnvAsLanguagesOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	codes := ParseLanguageList(val)
	if len(codes) == 0 {
		return defaultVal
	}
	return codes
}

func ParseLanguageList(val string) []string {
	var codes []string
	for _, part := range strings.Split(val, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if _, err := language.Parse(code); err != nil {
			log.Printf("config: ignoring invalid language code %q: %v", code, err)
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// LoadJWTSecret reads JWT_SECRET without requiring the rest of the server
// configuration.
func LoadJWTSecret() string {
	godotenv.Load()
	return os.Getenv("JWT_SECRET")
}
