package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMountPrefix    = "/api/proxy"
	defaultUpdateTimeout  = 60 * time.Second
	defaultRequestTimeout = 45 * time.Second
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// GatewayConfig はバックエンドへの HTTP 転送ゲートウェイに関する設定です。
// StripPortArtifact はホスティング環境がパスに付与する ":1" を除去するかを指定し、未指定時は true です。
type GatewayConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	BackendOrigin     string        `yaml:"backend_origin"`
	MountPrefix       string        `yaml:"mount_prefix"`
	StripPortArtifact *bool         `yaml:"strip_port_artifact"`
	UpdateTimeout     time.Duration `yaml:"-"`
	DefaultTimeout    time.Duration `yaml:"-"`
	UpdateTimeoutRaw  string        `yaml:"update_timeout"`
	DefaultTimeoutRaw string        `yaml:"default_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	ReadOnly           bool          `yaml:"read_only"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.Gateway.validateAndNormalize(); err != nil {
		return err
	}

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	return nil
}

func (g *GatewayConfig) validateAndNormalize() error {
	if g.ListenAddr == "" {
		return fmt.Errorf("config: gateway.listen_addr must be set")
	}
	if g.BackendOrigin == "" {
		return fmt.Errorf("config: gateway.backend_origin must be set")
	}

	origin, err := url.Parse(g.BackendOrigin)
	if err != nil {
		return fmt.Errorf("config: gateway.backend_origin: %w", err)
	}
	if (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return fmt.Errorf("config: gateway.backend_origin must be an absolute http(s) url")
	}
	g.BackendOrigin = strings.TrimRight(g.BackendOrigin, "/")

	if g.MountPrefix == "" {
		g.MountPrefix = defaultMountPrefix
	}
	g.MountPrefix = "/" + strings.Trim(g.MountPrefix, "/")

	if g.StripPortArtifact == nil {
		enabled := true
		g.StripPortArtifact = &enabled
	}

	update, err := parseDurationAllowEmpty(g.UpdateTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: gateway.update_timeout: %w", err)
	}
	if update == 0 {
		update = defaultUpdateTimeout
	}
	g.UpdateTimeout = update

	def, err := parseDurationAllowEmpty(g.DefaultTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: gateway.default_timeout: %w", err)
	}
	if def == 0 {
		def = defaultRequestTimeout
	}
	g.DefaultTimeout = def

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
