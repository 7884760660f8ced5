// Package config resolves client configuration. The API base URL is taken
// from, in order: an explicit override (flag), the SECURESHARE_API_URL
// environment variable, a config file under the user config dir, and finally
// a hardcoded localhost default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/session"
)

// Config is the resolved client configuration.
type Config struct {
	APIBaseURL  string
	SessionFile string
	Timeout     time.Duration
}

// Load resolves the configuration. overrideURL, when non-empty, wins over
// every other source.
func Load(overrideURL string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "secureshare"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SECURESHARE")
	v.AutomaticEnv()

	v.SetDefault("api_url", client.DefaultBaseURL)
	v.SetDefault("timeout", "30s")
	v.SetDefault("session_file", session.DefaultPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		APIBaseURL:  v.GetString("api_url"),
		SessionFile: v.GetString("session_file"),
		Timeout:     v.GetDuration("timeout"),
	}
	if overrideURL != "" {
		cfg.APIBaseURL = overrideURL
	}
	return cfg, nil
}
