// Package config defines the application configuration structures.
//
// Separated from cmd to allow other packages (db, ssh, ai, server) to
// depend on config without importing Cobra. Load builds one Config at
// process start; it is passed around by value and never mutated.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   Server
	LLM      LLM
	Database Database
	Redis    Redis
	Log      Log
}

// Server holds HTTP listener settings.
type Server struct {
	Port        string
	FrontendURL string
}

// Addr is the listen address for net/http.
func (s Server) Addr() string {
	return ":" + s.Port
}

// Redis holds schema cache settings. An empty URL disables the cache.
type Redis struct {
	URL       string
	SchemaTTL time.Duration
}

// Log holds logger settings.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // optional extra output path
}

// Load reads .env (if present), an optional config file and the
// environment, in that order of increasing precedence. An empty file
// means $HOME/.chatdb/config.yaml or ./config.yaml when they exist.
func Load(file string) (Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".chatdb"))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("frontend_url", "*")

	v.SetDefault("api_key", "")
	v.SetDefault("llm_base_url", DefaultLLMBaseURL)
	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_stream", true)
	v.SetDefault("llm_timeout", 120*time.Second)

	v.SetDefault("database_url", "")
	v.SetDefault("db_query_timeout", 30*time.Second)
	v.SetDefault("db_max_rows", 1000)

	v.SetDefault("ssh_enabled", false)
	v.SetDefault("ssh_host", "")
	v.SetDefault("ssh_port", 22)
	v.SetDefault("ssh_user", "")
	v.SetDefault("ssh_key_path", "")
	v.SetDefault("ssh_key_passphrase", "")
	v.SetDefault("ssh_known_hosts", "")

	v.SetDefault("redis_url", "")
	v.SetDefault("schema_cache_ttl", 5*time.Minute)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Server: Server{
			Port:        v.GetString("port"),
			FrontendURL: v.GetString("frontend_url"),
		},
		LLM: LLM{
			APIKey:  v.GetString("api_key"),
			BaseURL: v.GetString("llm_base_url"),
			Model:   v.GetString("llm_model"),
			Stream:  v.GetBool("llm_stream"),
			Timeout: v.GetDuration("llm_timeout"),
		},
		Database: Database{
			URL:          v.GetString("database_url"),
			QueryTimeout: v.GetDuration("db_query_timeout"),
			MaxRows:      v.GetInt("db_max_rows"),
			SSH: SSHConfig{
				Enabled:        v.GetBool("ssh_enabled"),
				Host:           v.GetString("ssh_host"),
				Port:           v.GetInt("ssh_port"),
				User:           v.GetString("ssh_user"),
				KeyPath:        v.GetString("ssh_key_path"),
				KeyPassphrase:  v.GetString("ssh_key_passphrase"),
				KnownHostsPath: v.GetString("ssh_known_hosts"),
			},
		},
		Redis: Redis{
			URL:       v.GetString("redis_url"),
			SchemaTTL: v.GetDuration("schema_cache_ttl"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
			File:   v.GetString("log_file"),
		},
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: PORT must not be empty")
	}
	if c.Database.MaxRows <= 0 {
		return fmt.Errorf("config: DB_MAX_ROWS must be positive, got %d", c.Database.MaxRows)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config: LLM_TIMEOUT must be positive, got %s", c.LLM.Timeout)
	}
	if err := c.Database.SSH.Validate(); err != nil {
		return err
	}
	return nil
}
