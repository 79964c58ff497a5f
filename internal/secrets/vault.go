package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// VaultConfig holds configuration for the Key Vault store
type VaultConfig struct {
	VaultName    string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// secretGetter is the slice of *azsecrets.Client the store uses
type secretGetter interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// VaultStore reads secrets from Azure Key Vault with an optional TTL cache
type VaultStore struct {
	client       secretGetter
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	now          func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSecret
}

// NewVaultStore authenticates with DefaultAzureCredential (env vars, managed
// identity or the Azure CLI) and connects to https://<name>.vault.azure.net/.
func NewVaultStore(cfg *VaultConfig, logger *zap.Logger) (*VaultStore, error) {
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("azure key vault client initialized",
		zap.String("vault_url", vaultURL),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
	)
	return newVaultStore(client, cfg, logger), nil
}

func newVaultStore(client secretGetter, cfg *VaultConfig, logger *zap.Logger) *VaultStore {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &VaultStore{
		client:       client,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     ttl,
		now:          time.Now,
		cache:        make(map[string]cachedSecret),
	}
}

// Lookup fetches the latest version of a secret. A 404 from the vault maps to ErrSecretNotFound.
func (v *VaultStore) Lookup(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrSecretNotFound
	}
	if value, ok := v.cached(name); ok {
		return value, nil
	}

	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", ErrSecretNotFound
		}
		v.logger.Error("failed to get secret from key vault",
			zap.String("secret_name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", ErrSecretNotFound
	}

	value := *resp.Value
	if v.cacheEnabled {
		v.mu.Lock()
		v.cache[name] = cachedSecret{value: value, expiresAt: v.now().Add(v.cacheTTL)}
		v.mu.Unlock()
	}
	return value, nil
}

func (v *VaultStore) cached(name string) (string, bool) {
	if !v.cacheEnabled {
		return "", false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.cache[name]
	if !ok {
		return "", false
	}
	if !v.now().Before(entry.expiresAt) {
		delete(v.cache, name)
		return "", false
	}
	return entry.value, true
}

// ClearCache drops every cached secret
func (v *VaultStore) ClearCache() {
	v.mu.Lock()
	v.cache = make(map[string]cachedSecret)
	v.mu.Unlock()
}
