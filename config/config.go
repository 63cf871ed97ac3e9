package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	App   AppConfig   `json:"app"`
	Auth  AuthConfig  `json:"auth"`
	DB    DBConfig    `json:"db"`
	Email EmailConfig `json:"email"`
}

// AppConfig holds server level options.
type AppConfig struct {
	Env      string `json:"env"`
	LogLevel string `json:"log_level"`
	HTTPAddr string `json:"http_addr"`
	BaseURL  string `json:"base_url"`
}

// AuthConfig holds token and cookie options. It satisfies the auth package
// Config interface.
type AuthConfig struct {
	SigningKey            string   `json:"signing_key"`
	SigningMethod         string   `json:"signing_method"`
	ContextKey            string   `json:"context_key"`
	TokenExpiration       int      `json:"token_expiration"`
	ExtendedTokenDuration int      `json:"extended_token_duration"`
	TokenLookup           string   `json:"token_lookup"`
	AuthScheme            string   `json:"auth_scheme"`
	Issuer                string   `json:"issuer"`
	Audience              []string `json:"audience"`
	RejectedRouteKey      string   `json:"rejected_route_key"`
	RejectedRouteDefault  string   `json:"rejected_route_default"`
}

func (c AuthConfig) GetSigningKey() string           { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string        { return c.SigningMethod }
func (c AuthConfig) GetContextKey() string           { return c.ContextKey }
func (c AuthConfig) GetTokenExpiration() int         { return c.TokenExpiration }
func (c AuthConfig) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c AuthConfig) GetTokenLookup() string          { return c.TokenLookup }
func (c AuthConfig) GetAuthScheme() string           { return c.AuthScheme }
func (c AuthConfig) GetIssuer() string               { return c.Issuer }
func (c AuthConfig) GetAudience() []string           { return c.Audience }
func (c AuthConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c AuthConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

// DBConfig holds database options. The getters satisfy the persistence
// client's config interface.
type DBConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	Debug  bool   `json:"debug"`
}

func (c DBConfig) GetDriver() string { return c.Driver }
func (c DBConfig) GetDSN() string    { return c.DSN }
func (c DBConfig) GetDebug() bool    { return c.Debug }

func (c DBConfig) GetServer() string         { return "" }
func (c DBConfig) GetOtelIdentifier() string { return "" }
func (c DBConfig) GetDatabase() string { return "" }
func (c DBConfig) GetUsername() string { return "" }
func (c DBConfig) GetPassword() string { return "" }

func (c DBConfig) GetPingTimeout() time.Duration { return 5 * time.Second }

// EmailConfig holds SMTP delivery options.
type EmailConfig struct {
	Driver   string `json:"driver"` // smtp or console
	SMTPHost string `json:"smtp_host"`
	SMTPPort int    `json:"smtp_port"`
	SMTPUser string `json:"smtp_user"`
	SMTPPass string `json:"smtp_pass"`
	From     string `json:"from"`
}

// Load reads the JSON config file, fills defaults, and applies environment
// overrides. A missing file is not an error, defaults plus env apply.
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault loads the configuration, falling back to defaults on error.
func LoadOrDefault(configPath ...string) *Config {
	cfg, err := Load(configPath...)
	if err != nil {
		fallback := getDefaultConfig()
		applyEnvOverrides(fallback)
		return fallback
	}
	return cfg
}

func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			HTTPAddr: ":8080",
			BaseURL:  "http://localhost:8080",
		},
		Auth: AuthConfig{
			SigningKey:            "dev_secret_change_me",
			SigningMethod:         "HS256",
			ContextKey:            "user",
			TokenExpiration:       24,
			ExtendedTokenDuration: 24 * 30,
			TokenLookup:           "cookie:user,header:Authorization",
			AuthScheme:            "Bearer",
			Issuer:                "pageauth",
			Audience:              []string{"pageauth"},
			RejectedRouteKey:      "rejected_route",
			RejectedRouteDefault:  "/",
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "file:pageauth.db?cache=shared&mode=rwc",
		},
		Email: EmailConfig{
			Driver:   "console",
			SMTPHost: "",
			SMTPPort: 587,
			SMTPUser: "",
			SMTPPass: "",
			From:     "",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = defaults.App.BaseURL
	}

	if cfg.Auth.SigningKey == "" {
		cfg.Auth.SigningKey = defaults.Auth.SigningKey
	}
	if cfg.Auth.SigningMethod == "" {
		cfg.Auth.SigningMethod = defaults.Auth.SigningMethod
	}
	if cfg.Auth.ContextKey == "" {
		cfg.Auth.ContextKey = defaults.Auth.ContextKey
	}
	if cfg.Auth.TokenExpiration == 0 {
		cfg.Auth.TokenExpiration = defaults.Auth.TokenExpiration
	}
	if cfg.Auth.ExtendedTokenDuration == 0 {
		cfg.Auth.ExtendedTokenDuration = defaults.Auth.ExtendedTokenDuration
	}
	if cfg.Auth.TokenLookup == "" {
		cfg.Auth.TokenLookup = defaults.Auth.TokenLookup
	}
	if cfg.Auth.AuthScheme == "" {
		cfg.Auth.AuthScheme = defaults.Auth.AuthScheme
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = defaults.Auth.Issuer
	}
	if len(cfg.Auth.Audience) == 0 {
		cfg.Auth.Audience = defaults.Auth.Audience
	}
	if cfg.Auth.RejectedRouteKey == "" {
		cfg.Auth.RejectedRouteKey = defaults.Auth.RejectedRouteKey
	}
	if cfg.Auth.RejectedRouteDefault == "" {
		cfg.Auth.RejectedRouteDefault = defaults.Auth.RejectedRouteDefault
	}

	if cfg.DB.Driver == "" {
		cfg.DB.Driver = defaults.DB.Driver
	}
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = defaults.DB.DSN
	}

	if cfg.Email.Driver == "" {
		cfg.Email.Driver = defaults.Email.Driver
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("db_dsn", "DB_DSN")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		cfg.App.BaseURL = v
	}

	if v := viper.GetString("jwt_secret"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("AUTH_TOKEN_EXPIRATION"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Auth.TokenExpiration = i
		}
	}
	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = strings.Split(v, ",")
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := viper.GetString("db_dsn"); v != "" {
		cfg.DB.DSN = v
	}

	if v := os.Getenv("EMAIL_DRIVER"); v != "" {
		cfg.Email.Driver = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = i
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Email.From = v
	}
}
