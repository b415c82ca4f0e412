package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
database:
  type: sqlite
  connectionString: "test.db"
cache:
  enabled: true
  address: "localhost:6379"
  ttlSeconds: 60
provider:
  type: s3
  s3:
    region: eu-central-1
    bucket: slides
overlay:
  maxDimension: 2048`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.Database.ConnectionString != "test.db" {
		t.Errorf("Expected connectionString to be 'test.db', got '%s'", config.Database.ConnectionString)
	}
	if !config.Cache.Enabled || config.Cache.Address != "localhost:6379" {
		t.Errorf("Unexpected cache config: %+v", config.Cache)
	}
	if config.Provider.Type != "s3" || config.Provider.S3.Bucket != "slides" {
		t.Errorf("Unexpected provider config: %+v", config.Provider)
	}
	if config.Overlay.MaxDimension != 2048 {
		t.Errorf("Expected maxDimension to be 2048, got %d", config.Overlay.MaxDimension)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := writeConfig(t, `{}`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.Port)
	}
	if config.Database.Type != "sqlite" {
		t.Errorf("Expected default database type sqlite, got %s", config.Database.Type)
	}
	if config.Provider.Type != "simple" {
		t.Errorf("Expected default provider type simple, got %s", config.Provider.Type)
	}
	if config.Cache.TTLSeconds != 300 {
		t.Errorf("Expected default cache ttl 300, got %d", config.Cache.TTLSeconds)
	}
	if config.Overlay.MaxDimension != 4096 {
		t.Errorf("Expected default maxDimension 4096, got %d", config.Overlay.MaxDimension)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")

	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unsupported database", "database:\n  type: postgres"},
		{"s3 without bucket", "provider:\n  type: s3\n  s3:\n    region: eu-central-1"},
		{"unknown provider", "provider:\n  type: ftp"},
		{"cache without address", "cache:\n  enabled: true"},
		{"port out of range", "port: 70000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			configPath := writeConfig(t, c.content)
			if _, err := LoadConfig(configPath); err == nil {
				t.Errorf("Expected error for %s, got nil", c.name)
			}
		})
	}
}
