// connections.go holds database connection settings.
//
// A request may name its own database URL; otherwise DATABASE_URL is
// used. The SSH tunnel, when enabled, applies to every connection.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNoDatabase is returned when neither the request nor the config
// names a database.
var ErrNoDatabase = errors.New("no database URL given and DATABASE_URL is not set")

// Database holds query execution settings.
type Database struct {
	URL          string
	QueryTimeout time.Duration
	MaxRows      int

	SSH SSHConfig
}

// SSHConfig holds SSH tunnel settings.
type SSHConfig struct {
	Enabled        bool
	Host           string
	Port           int
	User           string
	KeyPath        string
	KeyPassphrase  string
	KnownHostsPath string // empty disables host key verification
}

// Validate checks the tunnel settings when the tunnel is enabled.
func (s SSHConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	var missing []string
	if s.Host == "" {
		missing = append(missing, "SSH_HOST")
	}
	if s.User == "" {
		missing = append(missing, "SSH_USER")
	}
	if s.KeyPath == "" {
		missing = append(missing, "SSH_KEY_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: ssh tunnel enabled but %s not set", strings.Join(missing, ", "))
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("config: SSH_PORT out of range: %d", s.Port)
	}
	return nil
}

// ResolveURL picks the request's URL when given, else the configured one.
func (d Database) ResolveURL(override string) (string, error) {
	u := strings.TrimSpace(override)
	if u == "" {
		u = d.URL
	}
	if u == "" {
		return "", ErrNoDatabase
	}
	return u, nil
}

// RedactURL removes the password from a connection URL for logging.
// Strings that do not parse as URLs (key=value DSNs) are returned as
// "<dsn>".
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "<dsn>"
	}
	return u.Redacted()
}
