// Package config loads node settings from a YAML file, .env files and
// COURT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/genesis"
)

// MaxDifficulty is the highest accepted ledger.difficulty.
const MaxDifficulty = genesis.MaxDifficulty

type Config struct {
	Server ServerConfig `yaml:"server"`
	Ledger LedgerConfig `yaml:"ledger"`
	Auth   AuthConfig   `yaml:"auth"`
	Audit  AuditConfig  `yaml:"audit"`
	Node   NodeConfig   `yaml:"node"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RequireAuth     bool          `yaml:"require_auth"`
	EnableHTTPS     bool          `yaml:"enable_https"`
	TLSCertPath     string        `yaml:"tls_cert_path"`
	TLSKeyPath      string        `yaml:"tls_key_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// LoginRateLimit caps login attempts per client per minute; 0 disables.
	LoginRateLimit int `yaml:"login_rate_limit"`
}

type LedgerConfig struct {
	DBPath      string `yaml:"db_path"`
	Difficulty  int    `yaml:"difficulty"`
	PoolSize    int    `yaml:"pool_size"`
	MaxRetries  int    `yaml:"max_retries"`
	GenesisFile string `yaml:"genesis_file"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"admin_password"`
}

type AuditConfig struct {
	Path   string `yaml:"path"`
	Stdout bool   `yaml:"stdout"`
}

type NodeConfig struct {
	KeyDir  string `yaml:"key_dir"`
	LogFile string `yaml:"log_file"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			RequireAuth:     true,
			ShutdownTimeout: 10 * time.Second,
			LoginRateLimit:  20,
		},
		Ledger: LedgerConfig{
			DBPath:     "./court_db",
			Difficulty: 3,
			PoolSize:   256,
			MaxRetries: 3,
		},
		Auth: AuthConfig{
			TokenTTL:  12 * time.Hour,
			AdminUser: "admin",
		},
		Audit: AuditConfig{Stdout: true},
		Node:  NodeConfig{KeyDir: "."},
	}
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads path on top of the defaults and applies COURT_* overrides. An
// empty path, or a path that does not exist, yields defaults plus
// environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config load: %w", err)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("config unmarshal: %w", err)
			}
		}
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("COURT_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("COURT_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("COURT_REQUIRE_AUTH"); v != "" {
		c.Server.RequireAuth = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("COURT_ENABLE_HTTPS"); v != "" {
		c.Server.EnableHTTPS = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("COURT_TLS_CERT_PATH"); v != "" {
		c.Server.TLSCertPath = v
	}
	if v := os.Getenv("COURT_TLS_KEY_PATH"); v != "" {
		c.Server.TLSKeyPath = v
	}
	if v := os.Getenv("COURT_LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COURT_LOGIN_RATE_LIMIT: %w", err)
		}
		c.Server.LoginRateLimit = n
	}
	if v := os.Getenv("COURT_DB_PATH"); v != "" {
		c.Ledger.DBPath = v
	}
	if v := os.Getenv("COURT_DIFFICULTY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COURT_DIFFICULTY: %w", err)
		}
		c.Ledger.Difficulty = n
	}
	if v := os.Getenv("COURT_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COURT_POOL_SIZE: %w", err)
		}
		c.Ledger.PoolSize = n
	}
	if v := os.Getenv("COURT_GENESIS_FILE"); v != "" {
		c.Ledger.GenesisFile = v
	}
	if v := os.Getenv("COURT_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("COURT_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COURT_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v := os.Getenv("COURT_ADMIN_USER"); v != "" {
		c.Auth.AdminUser = v
	}
	if v := os.Getenv("COURT_ADMIN_PASSWORD"); v != "" {
		c.Auth.AdminPassword = v
	}
	if v := os.Getenv("COURT_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("COURT_KEY_DIR"); v != "" {
		c.Node.KeyDir = v
	}
	if v := os.Getenv("COURT_LOG_FILE"); v != "" {
		c.Node.LogFile = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings the node cannot run with.
func (c *Config) Validate() error {
	if c.Ledger.Difficulty < 0 || c.Ledger.Difficulty > MaxDifficulty {
		return fmt.Errorf("ledger.difficulty must be between 0 and %d, got %d", MaxDifficulty, c.Ledger.Difficulty)
	}
	if c.Ledger.DBPath == "" {
		return errors.New("ledger.db_path is required")
	}
	if c.Ledger.PoolSize <= 0 {
		return fmt.Errorf("ledger.pool_size must be positive, got %d", c.Ledger.PoolSize)
	}
	if c.Server.LoginRateLimit < 0 {
		return fmt.Errorf("server.login_rate_limit must not be negative, got %d", c.Server.LoginRateLimit)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Server.EnableHTTPS && (c.Server.TLSCertPath == "" || c.Server.TLSKeyPath == "") {
		return errors.New("server.enable_https needs tls_cert_path and tls_key_path")
	}
	return nil
}
