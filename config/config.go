package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CalendarConfig controls the iCalendar export envelope.
type CalendarConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductID   string `json:"product_id"`
	Timezone    string `json:"timezone"`
	UIDDomain   string `json:"uid_domain"`
	FilePrefix  string `json:"file_prefix"`
}

type Config struct {
	ServerPort           string         `json:"server_port"`
	DatabaseDriver       string         `json:"database_driver"`
	DatabasePath         string         `json:"database_path"`
	DatabaseDSN          string         `json:"database_dsn,omitempty"`
	JWTSecret            string         `json:"jwt_secret"`
	Production           bool           `json:"production"`
	SessionDurationHours int            `json:"session_duration_hours"`
	LogLevel             string         `json:"log_level"`
	AllowOrigins         string         `json:"allow_origins"`
	Calendar             CalendarConfig `json:"calendar"`

	path string
}

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

// DefaultPath returns the config file location, honouring ANNLIN_CONFIG_DIR.
func DefaultPath() string {
	configDir := os.Getenv("ANNLIN_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".annlin")
		}
	}
	return filepath.Join(configDir, "config.json")
}

// Default returns a configuration with every field populated.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = DriverSQLite
	}
	if c.SessionDurationHours == 0 {
		c.SessionDurationHours = 24
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AllowOrigins == "" {
		c.AllowOrigins = "http://localhost:5173,http://localhost:3000"
	}

	cal := &c.Calendar
	if cal.Name == "" {
		cal.Name = "NG Gemeente Annlin"
	}
	if cal.Description == "" {
		cal.Description = "Eredienste en gebeure van die gemeente"
	}
	if cal.ProductID == "" {
		cal.ProductID = "-//NG Gemeente Annlin//Kalender//AF"
	}
	if cal.Timezone == "" {
		cal.Timezone = "Africa/Johannesburg"
	}
	if cal.UIDDomain == "" {
		cal.UIDDomain = "annlin.org.za"
	}
	if cal.FilePrefix == "" {
		cal.FilePrefix = "annlin-kalender"
	}
}

// Load reads the config file at path, applies .env and environment overrides
// and writes the file back when secrets had to be generated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	cfg.Normalize()

	needsSave := false
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateSecret(32)
		needsSave = true
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), "annlin.db")
		needsSave = true
	}

	if needsSave {
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("ANNLIN_PORT"); port != "" {
		c.ServerPort = port
	}
	if driver := os.Getenv("ANNLIN_DB_DRIVER"); driver != "" {
		c.DatabaseDriver = strings.ToLower(driver)
	}
	if dbPath := os.Getenv("ANNLIN_DB_PATH"); dbPath != "" {
		c.DatabasePath = dbPath
	}
	if dsn := os.Getenv("ANNLIN_DB_DSN"); dsn != "" {
		c.DatabaseDSN = dsn
	}
	if secret := os.Getenv("ANNLIN_JWT_SECRET"); secret != "" {
		c.JWTSecret = secret
	}
	if os.Getenv("ANNLIN_PRODUCTION") == "true" {
		c.Production = true
	}
	if level := os.Getenv("ANNLIN_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if origins := os.Getenv("ANNLIN_ALLOW_ORIGINS"); origins != "" {
		c.AllowOrigins = origins
	}
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}
