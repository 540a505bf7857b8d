package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "DATABASE_URL",
	"GOOGLE_API_KEY", "PLACES_BASE_URL", "INGEST_ON_START", "INGEST_LAT",
	"INGEST_LNG", "INGEST_RADIUS", "INGEST_TYPE", "INGEST_LANGUAGE",
	"INGEST_PAGE_DELAY", "INGEST_MAX_PAGES", "CLOUDFLARE_ACCOUNT_ID",
	"CLOUDFLARE_ACCESS_KEY_ID", "CLOUDFLARE_SECRET_ACCESS_KEY",
	"CLOUDFLARE_BUCKET_NAME", "CLOUDFLARE_ENDPOINT",
}

// clearEnv blanks every key LoadFrom reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "restaurant_review", cfg.MongoDatabase)
	assert.False(t, cfg.IngestOnStart)
	assert.Equal(t, 22.651373604896655, cfg.IngestLat)
	assert.Equal(t, 120.30332454684512, cfg.IngestLng)
	assert.Equal(t, 200, cfg.IngestRadius)
	assert.Equal(t, "restaurant", cfg.IngestType)
	assert.Equal(t, "zh-TW", cfg.IngestLanguage)
	assert.Equal(t, 2500*time.Millisecond, cfg.IngestPageDelay)
	assert.Equal(t, "auto", cfg.R2.Region)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadFrom_FileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
PORT: "9000"
STORE_DRIVER: memory
INGEST_RADIUS: "500"
INGEST_PAGE_DELAY: 3s
`)
	t.Setenv("INGEST_RADIUS", "750")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 750, cfg.IngestRadius)
	assert.Equal(t, 3*time.Second, cfg.IngestPageDelay)
}

func TestLoadFrom_ParseErrorsAreCollected(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("INGEST_LAT", "north")
	t.Setenv("INGEST_RADIUS", "wide")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_LAT")
	assert.Contains(t, err.Error(), "INGEST_RADIUS")
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"ingest without api key", map[string]string{"STORE_DRIVER": "memory", "INGEST_ON_START": "true"}},
		{"latitude out of range", map[string]string{"STORE_DRIVER": "memory", "INGEST_LAT": "91"}},
		{"zero radius", map[string]string{"STORE_DRIVER": "memory", "INGEST_RADIUS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_IngestEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("INGEST_ON_START", "true")
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("INGEST_MAX_PAGES", "3")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.IngestOnStart)
	assert.Equal(t, 3, cfg.IngestMaxPages)
}

func TestR2Config_Enabled(t *testing.T) {
	cfg := R2Config{AccountID: "acct", AccessKeyID: "id", SecretAccessKey: "secret", BucketName: "bucket"}
	assert.True(t, cfg.Enabled())

	cfg.AccountID = ""
	assert.False(t, cfg.Enabled())

	cfg.Endpoint = "http://localhost:9000"
	assert.True(t, cfg.Enabled())
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", User: "u", Password: "p", Name: "restaurants", Port: "5432"}
	assert.Equal(t, "host=db user=u password=p dbname=restaurants port=5432 sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db/restaurants"
	assert.Equal(t, "postgres://u:p@db/restaurants", cfg.DSN())
}
