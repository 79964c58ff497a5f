package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source selects where secrets are read from
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceVault       Source = "vault"
	// SourceAuto uses the environment in development and the vault elsewhere
	SourceAuto Source = "auto"
)

// ErrSecretNotFound is returned when a store has no value for a name
var ErrSecretNotFound = errors.New("secret not found")

// Store is a single backend holding named secrets
type Store interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Binding ties a vault secret name to its environment override and to the
// config field it fills.
type Binding struct {
	Secret string
	Env    string
	Apply  func(value string)
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       Source
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Provider resolves secrets from one store, letting environment variables win
type Provider struct {
	source Source
	store  Store
	logger *zap.Logger
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source Source, environment string) Source {
	if source != SourceAuto && source != "" {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a provider backed by the environment or by Azure Key Vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var store Store = EnvStore{}
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vault, err := NewVaultStore(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		store = vault
	}

	logger.Info("secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return NewProviderWithStore(source, store, logger), nil
}

// NewProviderWithStore wires a provider around an existing store
func NewProviderWithStore(source Source, store Store, logger *zap.Logger) *Provider {
	return &Provider{source: source, store: store, logger: logger}
}

// Get returns the environment override when set, else the store's value
func (p *Provider) Get(ctx context.Context, b Binding) (string, error) {
	if b.Env != "" {
		if v := os.Getenv(b.Env); v != "" {
			return v, nil
		}
	}
	name := b.Secret
	if p.source == SourceEnvironment {
		name = b.Env
	}
	return p.store.Lookup(ctx, name)
}

// Apply resolves every binding and hands found values to their Apply func.
// Missing secrets are skipped; any other failure aborts.
func (p *Provider) Apply(ctx context.Context, bindings []Binding) (int, error) {
	applied := 0
	for _, b := range bindings {
		value, err := p.Get(ctx, b)
		if errors.Is(err, ErrSecretNotFound) {
			p.logger.Debug("secret not set", zap.String("secret_name", b.Secret))
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("failed to resolve secret %q: %w", b.Secret, err)
		}
		if value == "" {
			continue
		}
		b.Apply(value)
		applied++
	}
	return applied, nil
}

// Source returns the resolved source
func (p *Provider) Source() Source {
	return p.source
}

// EnvStore reads secrets from process environment variables
type EnvStore struct{}

func (EnvStore) Lookup(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrSecretNotFound
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}
