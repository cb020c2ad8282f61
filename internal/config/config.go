// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		NASA    NASA
		SpaceX  SpaceX
		HTTP    HTTP
		Channel Channel
		Publish Publish
		History History
		Log     Log
	}

	NASA struct {
		APIKey     string `env:"NASA_API_KEY"`
		APODURL    string `env:"APOD_URL" envDefault:"https://api.nasa.gov/planetary/apod"`
		EPICURL    string `env:"EPIC_URL" envDefault:"https://api.nasa.gov/EPIC/api/natural/images"`
		ArchiveURL string `env:"EPIC_ARCHIVE_URL" envDefault:"https://api.nasa.gov/EPIC/archive/natural"`
	}

	SpaceX struct {
		LaunchesURL      string `env:"SPACEX_LAUNCHES_URL" envDefault:"https://api.spacexdata.com/v4/launches"`
		FallbackLaunchID string `env:"SPACEX_FALLBACK_LAUNCH_ID" envDefault:"5eb87d47ffd86e000604b38a"`
	}

	HTTP struct {
		Timeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
		RateLimit float64       `env:"HTTP_RATE_LIMIT" envDefault:"5"`
		UserAgent string        `env:"HTTP_USER_AGENT" envDefault:"cosmosnaps"`
	}

	Channel struct {
		Kind             string `env:"CHANNEL_KIND" envDefault:"telegram"`
		TelegramToken    string `env:"TELEGRAM_BOT_TOKEN"`
		TelegramChannel  string `env:"TELEGRAM_CHANNEL_ID"`
		DiscordToken     string `env:"DISCORD_TOKEN"`
		DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`
	}

	Publish struct {
		IntervalHours float64 `env:"POST_INTERVAL_HOURS" envDefault:"4"`
		APODDir       string  `env:"APOD_DIR" envDefault:"nasa_images"`
		EPICDir       string  `env:"EPIC_DIR" envDefault:"nasa_epic_photos"`
		SpaceXDir     string  `env:"SPACEX_DIR" envDefault:"spacex_images"`
		MaxPhotoBytes int     `env:"PHOTO_MAX_BYTES" envDefault:"0"`
	}

	History struct {
		Path string `env:"HISTORY_DB"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"text"`
	}
)

// Load reads .env (when present) into the environment and parses the Config.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	return Parse()
}

// Parse builds a Config from the current environment.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Publish.IntervalHours <= 0 {
		return nil, fmt.Errorf("config error: POST_INTERVAL_HOURS must be positive, got %v", cfg.Publish.IntervalHours)
	}
	if cfg.Publish.MaxPhotoBytes < 0 {
		return nil, fmt.Errorf("config error: PHOTO_MAX_BYTES must not be negative")
	}

	return cfg, nil
}

// Interval is the time between scheduled posts.
func (p Publish) Interval() time.Duration {
	return time.Duration(p.IntervalHours * float64(time.Hour))
}

// ErrMissingCredential is returned when an API key is neither passed on the
// command line nor set in the environment.
var ErrMissingCredential = errors.New("missing credential")

// ResolveAPIKey returns cliValue if set, otherwise envValue, the value parsed
// from the envVarName environment variable.
func ResolveAPIKey(envVarName, envValue, cliValue string) (string, error) {
	if cliValue != "" {
		return cliValue, nil
	}

	if envValue != "" {
		return envValue, nil
	}

	return "", fmt.Errorf("%w: set %s or pass --api_key", ErrMissingCredential, envVarName)
}
