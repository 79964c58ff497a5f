package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/miniforvaltaren/api/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Billing   BillingConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// BaseURL is the public origin used in intake links and QR codes
	BaseURL  string
	Timezone string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	SQLitePath      string
}

type AuthConfig struct {
	// JWTSecret signs HS256 session tokens issued by the auth provider
	JWTSecret  string
	Issuer     string
	Audience   string
	CookieName string
	SignInURL  string
}

type BillingConfig struct {
	Enabled         bool
	SecretKey       string
	PriceBasic      string
	PricePro        string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

type StorageConfig struct {
	// Mode is "local" or "cloud"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
	EnableMetrics  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	// IntakePerMinute limits anonymous report submissions per IP
	IntakePerMinute int
	WhitelistIPs    []string
	WhitelistPaths  []string
}

// JobsConfig holds background job schedules (six-field cron, seconds first)
type JobsConfig struct {
	Enabled            bool
	OverdueCron        string
	MonthlyInvoiceCron string
	Timeout            int // seconds
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TimeoutDuration returns the per-run job timeout
func (j *JobsConfig) TimeoutDuration() time.Duration {
	return time.Duration(j.Timeout) * time.Second
}

// Location resolves the reference timezone
func (a *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// IsProduction reports whether the app runs in production
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load loads configuration from file and environment variables.
// Secrets are not fetched from the vault; use LoadWithSecrets for that.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("AUTH_SECRET")
	}
	if cfg.Billing.SecretKey == "" {
		cfg.Billing.SecretKey = v.GetString("STRIPE_SECRET_KEY")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and overlays secrets from Azure Key Vault.
// The vault is consulted only when USE_AZURE_KEY_VAULT=true and the environment
// is staging or production; otherwise environment variables are used as-is.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isVaultEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault || !isVaultEnv {
		logger.Info("using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
			zap.Bool("use_key_vault", useKeyVault),
		)
		return cfg, cfg.Validate()
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	applied, err := provider.Apply(ctx, cfg.SecretBindings())
	if err != nil {
		return nil, err
	}

	logger.Info("secrets loaded from key vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
		zap.Int("applied", applied),
	)
	return cfg, cfg.Validate()
}

// SecretBindings lists the config fields that may come from the vault
func (c *Config) SecretBindings() []secrets.Binding {
	return []secrets.Binding{
		{Secret: "POSTGRES-MAIN-HOST", Env: "DATABASE_HOST", Apply: func(v string) { c.Database.Host = v }},
		{Secret: "POSTGRES-MAIN-USER", Env: "DATABASE_USER", Apply: func(v string) { c.Database.User = v }},
		{Secret: "POSTGRES-MAIN-PASSWORD", Env: "DATABASE_PASSWORD", Apply: func(v string) { c.Database.Password = v }},
		{Secret: "auth-jwt-secret", Env: "AUTH_JWTSECRET", Apply: func(v string) { c.Auth.JWTSecret = v }},
		{Secret: "stripe-secret-key", Env: "BILLING_SECRETKEY", Apply: func(v string) { c.Billing.SecretKey = v }},
		{Secret: "storage-connection-string", Env: "STORAGE_CLOUDCONNECTIONSTRING", Apply: func(v string) { c.Storage.CloudConnectionString = v }},
	}
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && c.App.Environment != "development" {
		return fmt.Errorf("auth.jwtSecret is required outside development")
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	switch c.Storage.Mode {
	case "local", "cloud":
	default:
		return fmt.Errorf("invalid storage.mode %q", c.Storage.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid database.driver %q", c.Database.Driver)
	}
	if c.Billing.Enabled && c.Billing.SecretKey == "" {
		return fmt.Errorf("billing.secretKey is required when billing is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "MiniFörvaltaren API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.baseURL", "http://localhost:8080")
	v.SetDefault("app.timezone", "Europe/Stockholm")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "miniforvaltaren")
	v.SetDefault("database.user", "miniforvaltaren")
	v.SetDefault("database.password", "miniforvaltaren")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.sqlitePath", "miniforvaltaren.db")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.cookieName", "session")
	v.SetDefault("auth.signInURL", "/signin")

	// Billing defaults
	v.SetDefault("billing.enabled", false)
	v.SetDefault("billing.secretKey", "")
	v.SetDefault("billing.priceBasic", "")
	v.SetDefault("billing.pricePro", "")
	v.SetDefault("billing.successURL", "http://localhost:3000/settings/billing?status=success")
	v.SetDefault("billing.cancelURL", "http://localhost:3000/settings/billing?status=cancelled")
	v.SetDefault("billing.portalReturnURL", "http://localhost:3000/settings/billing")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.keyVaultName", "")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudConnectionString", "")
	v.SetDefault("storage.cloudContainer", "assets")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)
	v.SetDefault("server.enableMetrics", true)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.intakePerMinute", 5)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	// Job defaults: overdue sweep 00:05 daily, invoice run 06:00 on the 1st
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.overdueCron", "0 5 0 * * *")
	v.SetDefault("jobs.monthlyInvoiceCron", "0 0 6 1 * *")
	v.SetDefault("jobs.timeout", 300)
}
