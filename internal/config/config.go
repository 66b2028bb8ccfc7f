package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SNAPGRAM"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret        string
		AccessTTLMinutes int
		RefreshTTLHours  int
	}
	Feed struct {
		PageSize    int
		MaxPageSize int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
		PublicURL string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLHours) * time.Hour
}

// MediaEnabled reports whether uploads go to S3.
func (c Config) MediaEnabled() bool {
	return strings.TrimSpace(c.Storage.Bucket) != ""
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/snapgram.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.accessttlminutes", 5)
	v.SetDefault("auth.refreshttlhours", 24)
	v.SetDefault("feed.pagesize", 10)
	v.SetDefault("feed.maxpagesize", 100)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "snapgram")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.publicurl", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%s_AUTH_JWTSECRET is required", envPrefix)
	}
	if c.Auth.AccessTTLMinutes <= 0 || c.Auth.RefreshTTLHours <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Feed.PageSize <= 0 || c.Feed.MaxPageSize < c.Feed.PageSize {
		return fmt.Errorf("feed page size %d must be positive and at most %d", c.Feed.PageSize, c.Feed.MaxPageSize)
	}
	return nil
}

// loadDotEnv exports KEY=VALUE lines from path without overriding the real environment.
func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
