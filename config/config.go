package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"avito-scraper/utils"
)

type Config struct {
	BaseURLTemplate string
	Regions         []string
	RegionsFile     string
	MaxPages        int
	Headless        bool
	BlockImages     bool

	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
	WaitTimeout       time.Duration

	// MaxLoadAttempts and MaxBlockWaits cap the list-page recovery loop; 0 means no cap.
	LoadRetryDelay  time.Duration
	MaxLoadAttempts int
	BlockMinDelay   time.Duration
	BlockMaxDelay   time.Duration
	MaxBlockWaits   int

	StaleAttempts   int
	StaleRetryDelay time.Duration
	ReturnDelay     time.Duration
	DetailSettle    time.Duration
	ScrollSettle    time.Duration
	PageMinDelay    time.Duration
	PageMaxDelay    time.Duration

	FlushThreshold int
	OutputDir      string
	CSVDir         string
	DatabaseURL    string
	RabbitMQURL    string
	RabbitMQQueue  string

	LogLevel      string
	LogJSON       bool
	FluentEnabled bool
	FluentHost    string
	FluentPort    int
}

func DefaultConfig() *Config {
	return &Config{
		BaseURLTemplate:   "https://www.avito.ru/%s/kvartiry/prodam",
		Regions:           DefaultRegions(),
		MaxPages:          35,
		Headless:          true,
		BlockImages:       true,
		NavigationTimeout: 60 * time.Second,
		ElementTimeout:    5 * time.Second,
		WaitTimeout:       10 * time.Second,
		LoadRetryDelay:    5 * time.Second,
		MaxLoadAttempts:   0,
		BlockMinDelay:     10 * time.Second,
		BlockMaxDelay:     20 * time.Second,
		MaxBlockWaits:     0,
		StaleAttempts:     3,
		StaleRetryDelay:   1 * time.Second,
		ReturnDelay:       1 * time.Second,
		DetailSettle:      2 * time.Second,
		ScrollSettle:      1 * time.Second,
		PageMinDelay:      2 * time.Second,
		PageMaxDelay:      4 * time.Second,
		FlushThreshold:    2000,
		OutputDir:         "output",
		RabbitMQQueue:     "avito.listings.batches",
		LogLevel:          "info",
		FluentHost:        "127.0.0.1",
		FluentPort:        24224,
	}
}

// LoadConfig starts from DefaultConfig, reads an optional .env file and applies
// environment overrides. A missing .env file is not an error.
func LoadConfig(envPath ...string) (*Config, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		utils.Debug("No .env file found (path: %v), using environment only", envPath)
	}

	cfg := DefaultConfig()

	cfg.BaseURLTemplate = getEnvAsString("BASE_URL_TEMPLATE", cfg.BaseURLTemplate)
	cfg.RegionsFile = getEnvAsString("REGIONS_FILE", cfg.RegionsFile)
	cfg.MaxPages = getEnvAsInt("PAGES", cfg.MaxPages)
	cfg.Headless = getEnvAsBool("HEADLESS", cfg.Headless)
	cfg.BlockImages = getEnvAsBool("BLOCK_IMAGES", cfg.BlockImages)

	cfg.NavigationTimeout = getEnvAsDuration("NAVIGATION_TIMEOUT", cfg.NavigationTimeout)
	cfg.WaitTimeout = getEnvAsDuration("WAIT_TIMEOUT", cfg.WaitTimeout)
	cfg.LoadRetryDelay = getEnvAsDuration("LOAD_RETRY_DELAY", cfg.LoadRetryDelay)
	cfg.MaxLoadAttempts = getEnvAsInt("MAX_LOAD_ATTEMPTS", cfg.MaxLoadAttempts)
	cfg.BlockMinDelay = getEnvAsDuration("BLOCK_MIN_DELAY", cfg.BlockMinDelay)
	cfg.BlockMaxDelay = getEnvAsDuration("BLOCK_MAX_DELAY", cfg.BlockMaxDelay)
	cfg.MaxBlockWaits = getEnvAsInt("MAX_BLOCK_WAITS", cfg.MaxBlockWaits)
	cfg.StaleAttempts = getEnvAsInt("STALE_ATTEMPTS", cfg.StaleAttempts)
	cfg.PageMinDelay = getEnvAsDuration("PAGE_MIN_DELAY", cfg.PageMinDelay)
	cfg.PageMaxDelay = getEnvAsDuration("PAGE_MAX_DELAY", cfg.PageMaxDelay)

	cfg.FlushThreshold = getEnvAsInt("FLUSH_THRESHOLD", cfg.FlushThreshold)
	cfg.OutputDir = getEnvAsString("OUTPUT_DIR", cfg.OutputDir)
	cfg.CSVDir = getEnvAsString("CSV_DIR", cfg.CSVDir)
	cfg.DatabaseURL = getEnvAsString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RabbitMQURL = getEnvAsString("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQQueue = getEnvAsString("RABBITMQ_QUEUE", cfg.RabbitMQQueue)

	cfg.LogLevel = getEnvAsString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogJSON = getEnvAsBool("LOG_JSON", cfg.LogJSON)
	cfg.FluentEnabled = getEnvAsBool("FLUENTBIT_ENABLED", cfg.FluentEnabled)
	if cfg.FluentEnabled {
		cfg.FluentHost = getEnvAsString("FLUENTBIT_HOST", cfg.FluentHost)
		cfg.FluentPort = getEnvAsInt("FLUENTBIT_PORT", cfg.FluentPort)
		if cfg.FluentHost == "" {
			utils.Warn("FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is empty. Disabling Fluent Bit.")
			cfg.FluentEnabled = false
		}
	}

	if cfg.RegionsFile != "" {
		regions, err := LoadRegions(cfg.RegionsFile)
		if err != nil {
			return nil, err
		}
		cfg.Regions = regions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.MaxPages <= 0:
		return fmt.Errorf("PAGES must be positive, got %d", c.MaxPages)
	case c.FlushThreshold <= 0:
		return fmt.Errorf("FLUSH_THRESHOLD must be positive, got %d", c.FlushThreshold)
	case c.StaleAttempts <= 0:
		return fmt.Errorf("STALE_ATTEMPTS must be positive, got %d", c.StaleAttempts)
	case c.MaxLoadAttempts < 0 || c.MaxBlockWaits < 0:
		return fmt.Errorf("retry caps cannot be negative (0 disables the cap)")
	case c.BlockMaxDelay < c.BlockMinDelay:
		return fmt.Errorf("BLOCK_MAX_DELAY %v is below BLOCK_MIN_DELAY %v", c.BlockMaxDelay, c.BlockMinDelay)
	case c.PageMaxDelay < c.PageMinDelay:
		return fmt.Errorf("PAGE_MAX_DELAY %v is below PAGE_MIN_DELAY %v", c.PageMaxDelay, c.PageMinDelay)
	case len(c.Regions) == 0:
		return fmt.Errorf("at least one region is required")
	}
	return nil
}

// RegionURL builds the first list page for a region slug.
func (c *Config) RegionURL(region string) string {
	return fmt.Sprintf(c.BaseURLTemplate, region)
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		utils.Warn("Environment variable %s (value: %s) is not an int: %v. Using default %d", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		utils.Warn("Environment variable %s (value: %s) is not a bool: %v. Using default %t", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDur, err := time.ParseDuration(valueStr)
	if err != nil {
		utils.Warn("Environment variable %s (value: %s) is not a duration: %v. Using default %v", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueDur
}
