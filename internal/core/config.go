package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
	DataDir          string `yaml:"dataDir"`
}

type Cache struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

type S3 struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

type Provider struct {
	Type string `yaml:"type"`
	S3   S3     `yaml:"s3"`
}

type Overlay struct {
	MaxDimension int `yaml:"maxDimension"`
}

type ServiceConfig struct {
	Port     int      `yaml:"port"`
	Database Database `yaml:"database"`
	Cache    Cache    `yaml:"cache"`
	Provider Provider `yaml:"provider"`
	Overlay  Overlay  `yaml:"overlay"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyDefaults(&config)
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *ServiceConfig) {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Database.ConnectionString == "" {
		config.Database.ConnectionString = "slideframe.db"
	}
	if config.Provider.Type == "" {
		config.Provider.Type = "simple"
	}
	if config.Cache.TTLSeconds == 0 {
		config.Cache.TTLSeconds = 300
	}
	if config.Overlay.MaxDimension == 0 {
		config.Overlay.MaxDimension = 4096
	}
}

func validateConfig(config *ServiceConfig) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port %d is out of range", config.Port)
	}
	if config.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}
	switch config.Provider.Type {
	case "simple":
	case "s3":
		if config.Provider.S3.Bucket == "" {
			return fmt.Errorf("s3 provider requires a bucket")
		}
		if config.Provider.S3.Region == "" {
			return fmt.Errorf("s3 provider requires a region")
		}
	default:
		return fmt.Errorf("unsupported provider type: %s", config.Provider.Type)
	}
	if config.Cache.Enabled && config.Cache.Address == "" {
		return fmt.Errorf("cache is enabled but no address is configured")
	}
	if config.Overlay.MaxDimension < 1 {
		return fmt.Errorf("overlay maxDimension must be positive")
	}
	return nil
}
