package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

var validate = validator.New()

type AppConfig struct {
	MSWAPIKey string

	// SurflineDays is how many days of forecast to request from Surfline.
	SurflineDays      int
	SurflineNearshore bool
	SurflineAllSpots  bool

	// FetchInterval controls how often a fetch cycle runs for every spot.
	FetchInterval time.Duration
	// FetchConcurrency bounds the number of spots fetched in parallel.
	FetchConcurrency int
	HTTPTimeout      time.Duration

	// DatabaseURL selects the Postgres store; empty means in-memory.
	DatabaseURL string
	// RequestLogSize bounds the in-memory request log (0 = unlimited).
	RequestLogSize int

	// Spots to track.
	Spots []surf.Spot

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.MSWAPIKey = os.Getenv("MSW_API_KEY")
	cfg.SurflineDays = getenvInt("SURFLINE_DAYS", 15)
	cfg.SurflineNearshore = getenvBool("SURFLINE_NEARSHORE", true)
	cfg.SurflineAllSpots = getenvBool("SURFLINE_ALL_SPOTS", true)

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval
	cfg.FetchConcurrency = getenvInt("FETCH_CONCURRENCY", 4)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RequestLogSize = getenvInt("REQUEST_LOG_SIZE", 1000)
	cfg.Port = getenvDefault("PORT", "8080")

	if path := os.Getenv("SPOTS_FILE"); path != "" {
		spots, err := LoadSpots(path)
		if err != nil {
			return nil, err
		}
		cfg.Spots = spots
	}

	return cfg, nil
}

// LoadSpots reads a JSON array of spots and validates each entry.
func LoadSpots(path string) ([]surf.Spot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spots file: %w", err)
	}
	return ParseSpots(raw)
}

// ParseSpots decodes and validates a JSON array of spots. Every spot must
// have a loadable timezone and unique ID.
func ParseSpots(raw []byte) ([]surf.Spot, error) {
	var spots []surf.Spot
	if err := json.Unmarshal(raw, &spots); err != nil {
		return nil, fmt.Errorf("decode spots: %w", err)
	}

	seen := make(map[int64]bool, len(spots))
	for i := range spots {
		spots[i].Timezone = surf.CanonicalZone(spots[i].Timezone)
		s := spots[i]
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("spot #%d: %w", i, err)
		}
		if _, err := surf.LoadZone(s.Timezone); err != nil {
			return nil, fmt.Errorf("spot %d: %w", s.ID, err)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate spot id %d", s.ID)
		}
		seen[s.ID] = true
	}
	return spots, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
