package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API         APIConfig         `toml:"api"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Capture     CaptureConfig     `toml:"capture"`
	Callback    CallbackConfig    `toml:"callback"`
}

// APIConfig contains Testivid backend connection settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google"`
}

// GoogleConfig contains Google OAuth2 credentials for the delegated sign-in flow.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CaptureConfig contains webcam/microphone capture settings.
type CaptureConfig struct {
	Binary      string `toml:"binary"`
	VideoDevice string `toml:"video_device"`
	AudioDevice string `toml:"audio_device"`
}

// CallbackConfig contains loopback OAuth callback server settings.
type CallbackConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory is loaded first (absence is not an error),
// then TESTIVID_* environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func applyEnvOverrides(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("TESTIVID_API_BASE_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("TESTIVID_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("TESTIVID_GOOGLE_CLIENT_ID"); v != "" {
		config.Credentials.Google.ClientID = v
	}
	if v := os.Getenv("TESTIVID_GOOGLE_CLIENT_SECRET"); v != "" {
		config.Credentials.Google.ClientSecret = v
	}
	if v := os.Getenv("TESTIVID_CAPTURE_BINARY"); v != "" {
		config.Capture.Binary = v
	}
	if v := os.Getenv("TESTIVID_CALLBACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Callback.Port = port
		}
	}
}
