// Package config provides functionality for managing configuration options
// for the server and the CLI using command-line flags, an optional JSON
// config file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

// ServerOptions holds the configuration values for the backend.
type ServerOptions struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// TLSCert and TLSKey are the server certificate pair. When TLSCert is
	// empty the server speaks plain HTTP.
	TLSCert string
	TLSKey  string

	// TokenTTL is the lifetime of an issued session token.
	TokenTTL time.Duration

	// CleanupInterval is how often expired session tokens are purged.
	CleanupInterval time.Duration

	// LogLevel is the minimum zap level.
	LogLevel string
}

// serverFile is the JSON shape of the server config file.
type serverFile struct {
	Addr            *string `json:"address"`
	DatabaseDSN     *string `json:"database_dsn"`
	TLSCert         *string `json:"tls_cert"`
	TLSKey          *string `json:"tls_key"`
	TokenTTL        *string `json:"token_ttl"`
	CleanupInterval *string `json:"cleanup_interval"`
	LogLevel        *string `json:"log_level"`
}

// ParseServer parses args (without the program name), then overlays the
// config file and finally the environment: SERVER_ADDRESS, DATABASE_DSN and
// CONFIG.
func ParseServer(args []string) (*ServerOptions, error) {
	opts := &ServerOptions{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Addr, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&opts.TLSCert, "tls-cert", "certs/server.crt", "server certificate; empty serves plain HTTP")
	fs.StringVar(&opts.TLSKey, "tls-key", "certs/server.key", "server private key")
	fs.DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "session token lifetime")
	fs.DurationVar(&opts.CleanupInterval, "cleanup-interval", time.Hour, "expired session purge interval")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}
	if err := opts.loadFile(); err != nil {
		return nil, err
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		opts.DatabaseDSN = dsn
	}
	return opts, nil
}

// loadFile applies the config file when it exists.
func (o *ServerOptions) loadFile() error {
	if o.Config == "" {
		return nil
	}
	data, err := os.ReadFile(o.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	var f serverFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	setString(&o.Addr, f.Addr)
	setString(&o.DatabaseDSN, f.DatabaseDSN)
	setString(&o.TLSCert, f.TLSCert)
	setString(&o.TLSKey, f.TLSKey)
	setString(&o.LogLevel, f.LogLevel)
	if err := setDuration(&o.TokenTTL, f.TokenTTL); err != nil {
		return fmt.Errorf("token_ttl: %w", err)
	}
	if err := setDuration(&o.CleanupInterval, f.CleanupInterval); err != nil {
		return fmt.Errorf("cleanup_interval: %w", err)
	}
	return nil
}

func setString(dst, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// ClientOptions holds the CLI configuration.
type ClientOptions struct {
	// BaseURL is the API root including the /api prefix.
	BaseURL string
	// CAFile is a PEM bundle used as the only trusted root; empty uses the
	// system roots.
	CAFile string
	// SessionFile is where the signed-in session is kept between runs.
	SessionFile string
	// Timeout bounds every HTTP request.
	Timeout time.Duration
	// LogLevel is the minimum level written to stderr.
	LogLevel string
}

// DefaultClient returns the CLI defaults.
func DefaultClient() *ClientOptions {
	session := "workboard-session.json"
	if dir, err := os.UserConfigDir(); err == nil {
		session = filepath.Join(dir, "workboard", "session.json")
	}
	return &ClientOptions{
		BaseURL:     "https://localhost:8080/api",
		SessionFile: session,
		Timeout:     15 * time.Second,
		LogLevel:    "warn",
	}
}

// Bind registers the client flags on fs, typically cobra's persistent flags.
func (o *ClientOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "url", o.BaseURL, "API base URL")
	fs.StringVar(&o.CAFile, "ca", o.CAFile, "path to CA certificate")
	fs.StringVar(&o.SessionFile, "session", o.SessionFile, "path to the saved session")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "HTTP request timeout")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level")
}

// ApplyEnv overrides options from WORKBOARD_URL, WORKBOARD_CA and
// WORKBOARD_SESSION.
func (o *ClientOptions) ApplyEnv() {
	if v := os.Getenv("WORKBOARD_URL"); v != "" {
		o.BaseURL = v
	}
	if v := os.Getenv("WORKBOARD_CA"); v != "" {
		o.CAFile = v
	}
	if v := os.Getenv("WORKBOARD_SESSION"); v != "" {
		o.SessionFile = v
	}
}
