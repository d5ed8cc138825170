package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxOutbreakBatch caps how many feed entries a single sync may process.
const MaxOutbreakBatch = 10

// Database selects the storage engine.
type Database struct {
	Driver        string
	URL           string
	NotifyChannel string
}

// OpenAI configures the chat-completion endpoint.
type OpenAI struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// Outbreak configures the outbreak feed synchronizer.
type Outbreak struct {
	FeedURL        string
	ItemURL        string
	BatchSize      int
	FetchTimeout   time.Duration
	SyncInterval   time.Duration
	DedupeCapacity int
	DedupeTTL      time.Duration
	KafkaBrokers   []string
	KafkaTopic     string
}

// Common contains the settings shared by every binary.
type Common struct {
	Database Database
	OpenAI   OpenAI
	Outbreak Outbreak
}

// Server holds configuration for the HTTP delivery channel.
type Server struct {
	Common
	BindAddr string
}

// LoadCommon builds the shared configuration from environment variables.
func LoadCommon() (*Common, error) {
	c := &Common{
		Database: Database{
			Driver:        getEnv("DATABASE_DRIVER", "postgres"),
			URL:           getEnv("DATABASE_URL", ""),
			NotifyChannel: getEnv("POSTGRES_NOTIFY_CHANNEL", "outbreaks"),
		},
		OpenAI: OpenAI{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL_CHAT", "gpt-4o-mini"),
			Temperature: getFloat32("OPENAI_TEMPERATURE", 0.2),
		},
		Outbreak: Outbreak{
			FeedURL:        getEnv("OUTBREAK_FEED_URL", "https://www.who.int/api/news/diseaseoutbreaknews?sf_culture=en&$orderby=PublicationDateAndTime%20desc&$top=10"),
			ItemURL:        getEnv("OUTBREAK_ITEM_URL", "https://www.who.int/emergencies/disease-outbreak-news/item/{id}"),
			BatchSize:      getInt("OUTBREAK_BATCH_SIZE", MaxOutbreakBatch),
			FetchTimeout:   getDuration("OUTBREAK_FETCH_TIMEOUT", "10s"),
			SyncInterval:   getDuration("OUTBREAK_SYNC_INTERVAL", "0s"),
			DedupeCapacity: getInt("DEDUPE_CAPACITY", 1000),
			DedupeTTL:      getDuration("DEDUPE_TTL", "24h"),
			KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			KafkaTopic:     getEnv("KAFKA_TOPIC", "outbreaks"),
		},
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return nil, fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if c.Outbreak.BatchSize <= 0 || c.Outbreak.BatchSize > MaxOutbreakBatch {
		return nil, fmt.Errorf("OUTBREAK_BATCH_SIZE must be between 1 and %d", MaxOutbreakBatch)
	}
	if c.Outbreak.FetchTimeout <= 0 {
		return nil, fmt.Errorf("OUTBREAK_FETCH_TIMEOUT must be positive")
	}
	if c.Outbreak.SyncInterval < 0 {
		return nil, fmt.Errorf("OUTBREAK_SYNC_INTERVAL cannot be negative")
	}
	if c.Outbreak.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("DEDUPE_CAPACITY must be positive")
	}
	if !strings.Contains(c.Outbreak.ItemURL, "{id}") {
		return nil, fmt.Errorf("OUTBREAK_ITEM_URL must contain the {id} placeholder")
	}

	return c, nil
}

// LoadServer builds a Server config from environment variables.
func LoadServer() (*Server, error) {
	common, err := LoadCommon()
	if err != nil {
		return nil, err
	}
	return &Server{
		Common:   *common,
		BindAddr: getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat32(key string, fallback float32) float32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(parsed)
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
