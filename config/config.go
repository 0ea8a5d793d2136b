package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var (
	config     *Config
	configOnce sync.Once
)

type Config struct {
	Server struct {
		Port       string `json:"port"`
		Host       string `json:"host"`
		BaseURL    string `json:"base_url"`
		LinkScheme string `json:"link_scheme"`
		LogLevel   string `json:"log_level"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Storage struct {
		Provider       string `json:"provider"`
		Endpoint       string `json:"endpoint"`
		Region         string `json:"region"`
		AccessKey      string `json:"access_key"`
		SecretKey      string `json:"secret_key"`
		Bucket         string `json:"bucket"`
		ForcePathStyle bool   `json:"force_path_style"`
	} `json:"storage"`

	Mirror struct {
		Enabled bool   `json:"enabled"`
		Bucket  string `json:"bucket"`
		Prefix  string `json:"prefix"`
	} `json:"mirror"`

	Security struct {
		JWTSecret       string `json:"jwt_secret"`
		SessionTTLHours int    `json:"session_ttl_hours"`
		AccountSecret   string `json:"account_secret"`
	} `json:"security"`

	Identity struct {
		KeyFile string `json:"key_file"`
	} `json:"identity"`

	Logging struct {
		Directory  string `json:"directory"`
		MaxSize    int64  `json:"max_size"`
		MaxBackups int    `json:"max_backups"`
	} `json:"logging"`
}

// LoadConfig loads the configuration from environment variables and optional JSON file
func LoadConfig() (*Config, error) {
	var err error
	configOnce.Do(func() {
		config = &Config{}

		// Load .env file if it exists
		godotenv.Load()

		// Load default configuration
		if err = loadDefaultConfig(config); err != nil {
			return
		}

		// Override with environment variables
		if err = loadEnvConfig(config); err != nil {
			return
		}

		// Load JSON config if specified
		configPath := os.Getenv("CONFIG_FILE")
		if configPath != "" {
			if err = loadJSONConfig(config, configPath); err != nil {
				return
			}
		}

		// Validate configuration
		if err = validateConfig(config); err != nil {
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return config, nil
}

func loadDefaultConfig(cfg *Config) error {
	// Set default values
	cfg.Server.Port = "8787"
	cfg.Server.Host = "localhost"
	cfg.Server.LinkScheme = "fxfiles"
	cfg.Database.Path = "./fxshare.db"
	cfg.Storage.Provider = "s3"
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.ForcePathStyle = true
	cfg.Mirror.Enabled = true
	cfg.Mirror.Prefix = "fxshare"
	cfg.Security.SessionTTLHours = 24
	cfg.Identity.KeyFile = "./fxshare.keys"
	cfg.Logging.Directory = "logs"
	cfg.Logging.MaxSize = 10 * 1024 * 1024 // 10MB
	cfg.Logging.MaxBackups = 5

	return nil
}

func loadEnvConfig(cfg *Config) error {
	// Server configuration
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if scheme := os.Getenv("LINK_SCHEME"); scheme != "" {
		cfg.Server.LinkScheme = scheme
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}

	// Database configuration
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		cfg.Database.Path = path
	}

	// Storage configuration
	if provider := os.Getenv("STORAGE_PROVIDER"); provider != "" {
		cfg.Storage.Provider = provider
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg.Storage.Region = region
	}
	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		cfg.Storage.AccessKey = accessKey
	}
	if secretKey := os.Getenv("S3_SECRET_KEY"); secretKey != "" {
		cfg.Storage.SecretKey = secretKey
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if pathStyle := os.Getenv("S3_FORCE_PATH_STYLE"); pathStyle == "false" {
		cfg.Storage.ForcePathStyle = false
	}

	// Mirror configuration
	if enabled := os.Getenv("MIRROR_ENABLED"); enabled == "false" {
		cfg.Mirror.Enabled = false
	}
	if bucket := os.Getenv("MIRROR_BUCKET"); bucket != "" {
		cfg.Mirror.Bucket = bucket
	}
	if prefix := os.Getenv("MIRROR_PREFIX"); prefix != "" {
		cfg.Mirror.Prefix = prefix
	}

	// Security configuration
	cfg.Security.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Security.AccountSecret = os.Getenv("ACCOUNT_SECRET")
	if ttl := os.Getenv("SESSION_TTL_HOURS"); ttl != "" {
		hours, err := strconv.Atoi(ttl)
		if err != nil || hours <= 0 {
			return fmt.Errorf("SESSION_TTL_HOURS must be a positive integer, got %q", ttl)
		}
		cfg.Security.SessionTTLHours = hours
	}

	// Identity configuration
	if keyFile := os.Getenv("IDENTITY_KEY_FILE"); keyFile != "" {
		cfg.Identity.KeyFile = keyFile
	}

	return nil
}

func loadJSONConfig(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Security.AccountSecret == "" {
		return fmt.Errorf("ACCOUNT_SECRET is required")
	}

	if cfg.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}

	// The mirror blob lives in the account bucket unless told otherwise.
	if cfg.Mirror.Bucket == "" {
		cfg.Mirror.Bucket = cfg.Storage.Bucket
	}

	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if config == nil {
		panic("Configuration not loaded")
	}
	return config
}

// ResetForTest clears the cached configuration so tests can reload it
func ResetForTest() {
	config = nil
	configOnce = sync.Once{}
}
