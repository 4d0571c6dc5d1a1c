package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string

	// LibraryTTL bounds how long a fetched library is served from cache.
	LibraryTTL time.Duration
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Steam struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Webhooks struct {
	SlackURL string
	TeamsURL string
	Timeout  time.Duration
}

type Sessions struct {
	DefaultDuration time.Duration
	Retention       time.Duration
	SweepTick       time.Duration
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Steam    Steam
	Webhooks Webhooks
	Sessions Sessions
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	return &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Steam:    *newSteam(),
		Webhooks: *newWebhooks(),
		Sessions: *newSessions(),
	}
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:       getenv("REDIS_PORT", "6379"),
		Host:       getenv("REDIS_HOST", "redis"),
		Password:   getenv("REDIS_PASSWORD", ""),
		LibraryTTL: getenvDuration("LIBRARY_CACHE_TTL", 15*time.Minute),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "gamenight"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newSteam() *Steam {
	return &Steam{
		APIKey:  getenv("STEAM_API_KEY", ""),
		BaseURL: getenv("STEAM_API_URL", "https://api.steampowered.com"),
		Timeout: getenvDuration("STEAM_TIMEOUT", 10*time.Second),
	}
}

func newWebhooks() *Webhooks {
	return &Webhooks{
		SlackURL: getenv("SLACK_WEBHOOK_URL", ""),
		TeamsURL: getenv("TEAMS_WEBHOOK_URL", ""),
		Timeout:  getenvDuration("WEBHOOK_TIMEOUT", 8*time.Second),
	}
}

func newSessions() *Sessions {
	return &Sessions{
		DefaultDuration: getenvDuration("SESSION_DEFAULT_DURATION", 5*time.Minute),
		Retention:       getenvDuration("SESSION_RETENTION", 30*time.Minute),
		SweepTick:       getenvDuration("SESSION_SWEEP_TICK", time.Minute),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("%s bad duration in %s, using default %s", logtag, key, defaultValue)
		return defaultValue
	}
	return d
}
