package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	defaultConfigFile = "config.yaml"
)

type Config struct {
	Port string `validate:"required,numeric"`

	StoreDriver   string `validate:"oneof=mongo postgres memory"`
	MongoURI      string `validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `validate:"required_if=StoreDriver mongo"`
	Postgres      PostgresConfig

	GoogleAPIKey  string `validate:"required_if=IngestOnStart true"`
	PlacesBaseURL string `validate:"omitempty,url"`

	IngestOnStart   bool
	IngestLat       float64 `validate:"gte=-90,lte=90"`
	IngestLng       float64 `validate:"gte=-180,lte=180"`
	IngestRadius    int     `validate:"gt=0,lte=50000"`
	IngestType      string
	IngestLanguage  string
	IngestPageDelay time.Duration
	IngestMaxPages  int `validate:"gte=0"`

	R2 R2Config
}

type PostgresConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Load reads .env (if present), then the optional YAML file named by
// CONFIG_FILE (default config.yaml). Environment variables win over YAML.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	fileValues, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	src := source{file: fileValues}

	cfg := &Config{
		Port:          src.str("PORT", "8080"),
		StoreDriver:   src.str("STORE_DRIVER", StoreMongo),
		MongoURI:      src.str("MONGO_URI", ""),
		MongoDatabase: src.str("MONGO_DATABASE", "restaurant_review"),
		Postgres: PostgresConfig{
			URL:      src.str("DATABASE_URL", ""),
			Host:     src.str("DB_HOST", "localhost"),
			User:     src.str("DB_USER", ""),
			Password: src.str("DB_PASSWORD", ""),
			Name:     src.str("DB_NAME", ""),
			Port:     src.str("DB_PORT", "5432"),
		},
		GoogleAPIKey:   src.str("GOOGLE_API_KEY", ""),
		PlacesBaseURL:  src.str("PLACES_BASE_URL", ""),
		IngestType:     src.str("INGEST_TYPE", "restaurant"),
		IngestLanguage: src.str("INGEST_LANGUAGE", "zh-TW"),
		R2:             loadR2Config(&src),
	}

	cfg.IngestOnStart = src.boolean("INGEST_ON_START", false)
	cfg.IngestLat = src.float("INGEST_LAT", 22.651373604896655)
	cfg.IngestLng = src.float("INGEST_LNG", 120.30332454684512)
	cfg.IngestRadius = src.integer("INGEST_RADIUS", 200)
	cfg.IngestPageDelay = src.duration("INGEST_PAGE_DELAY", 2500*time.Millisecond)
	cfg.IngestMaxPages = src.integer("INGEST_MAX_PAGES", 0)

	if len(src.errs) > 0 {
		return nil, errors.Join(src.errs...)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) (map[string]string, error) {
	values := map[string]string{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return values, nil
}

// source resolves a key from the environment first, then the config file,
// collecting parse errors instead of failing on the first one.
type source struct {
	file map[string]string
	errs []error
}

func (s *source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}

func (s *source) str(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s *source) boolean(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (s *source) integer(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (s *source) float(key string, def float64) float64 {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (s *source) duration(key string, def time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
