// Package config loads settings from an optional JSON file and PHONELOGIN_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"phonelogin/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. PHONELOGIN_LOG_LEVEL.
const EnvPrefix = "PHONELOGIN"

// Backend names accepted by session.backend.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Identity IdentityConfig `mapstructure:"identity"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Login    LoginConfig    `mapstructure:"login"`
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type IdentityConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AvatarProbe  bool          `mapstructure:"avatar_probe"`
	ProbeTimeout time.Duration `mapstructure:"avatar_probe_timeout"`
}

type SessionConfig struct {
	Backend       string `mapstructure:"backend"`
	Key           string `mapstructure:"key"`
	Dir           string `mapstructure:"dir"`
	Encryption    bool   `mapstructure:"encryption"`
	MasterKeyFile string `mapstructure:"master_key_file"`
	BindDevice    bool   `mapstructure:"bind_device"`
	MemoryQuota   int    `mapstructure:"memory_quota"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type LoginConfig struct {
	MaxRetries    int           `mapstructure:"max_retries"`
	FetchDelay    time.Duration `mapstructure:"fetch_delay"`
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type HTTPConfig struct {
	Addr    string `mapstructure:"addr"`
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("identity.url", "https://randomuser.me/api/")
	v.SetDefault("identity.timeout", 10*time.Second)
	v.SetDefault("identity.avatar_probe", false)
	v.SetDefault("identity.avatar_probe_timeout", 3*time.Second)

	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.key", "user")
	v.SetDefault("session.dir", utils.GetUserDataDir())
	v.SetDefault("session.encryption", false)
	v.SetDefault("session.master_key_file", "master.key")
	v.SetDefault("session.bind_device", false)
	v.SetDefault("session.memory_quota", 0)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.prefix", "phonelogin:")

	v.SetDefault("login.max_retries", 3)
	v.SetDefault("login.fetch_delay", 300*time.Millisecond)
	v.SetDefault("login.redirect_delay", 500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.tls_cert", "")
	v.SetDefault("http.tls_key", "")
}

// Load reads CONFIG_FILE, or config.json at the project root when present,
// then applies environment overrides and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if p := filepath.Join(utils.GetProjectRoot(), "config.json"); fileExists(p) {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unusable values and clamps the rest.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("session.backend must be one of file, memory, redis: got %q", c.Session.Backend)
	}
	if c.Session.Key == "" {
		return fmt.Errorf("session.key must not be empty")
	}
	if c.Session.Backend == BackendFile && c.Session.Dir == "" {
		return fmt.Errorf("session.dir is required for the file backend")
	}
	if c.Session.Backend == BackendRedis && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required for the redis backend")
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return fmt.Errorf("http.tls_cert and http.tls_key must be set together")
	}
	if c.Identity.Timeout <= 0 {
		c.Identity.Timeout = 10 * time.Second
	}
	if c.Identity.ProbeTimeout <= 0 {
		c.Identity.ProbeTimeout = 3 * time.Second
	}
	if c.Login.MaxRetries <= 0 {
		c.Login.MaxRetries = 3
	}
	if c.Login.FetchDelay < 0 {
		c.Login.FetchDelay = 0
	}
	if c.Login.RedirectDelay < 0 {
		c.Login.RedirectDelay = 0
	}
	if c.Session.MemoryQuota < 0 {
		c.Session.MemoryQuota = 0
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
