package secrets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapStore map[string]string

func (m mapStore) Lookup(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", ErrSecretNotFound
}

type fakeGetter struct {
	values map[string]string
	calls  int
	err    error
}

func (f *fakeGetter) GetSecret(_ context.Context, name, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	if f.err != nil {
		return azsecrets.GetSecretResponse{}, f.err
	}
	v, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource("", ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_Apply(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")

	store := mapStore{"db-password": "vault-pw", "jwt-secret": "vault-jwt"}
	p := NewProviderWithStore(SourceVault, store, zap.NewNop())

	var dbPassword, jwtSecret, stripeKey string
	n, err := p.Apply(context.Background(), []Binding{
		{Secret: "db-password", Env: "TEST_DB_PASSWORD_UNSET", Apply: func(v string) { dbPassword = v }},
		{Secret: "jwt-secret", Env: "TEST_JWT_SECRET", Apply: func(v string) { jwtSecret = v }},
		{Secret: "stripe-key", Env: "TEST_STRIPE_UNSET", Apply: func(v string) { stripeKey = v }},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "vault-pw", dbPassword)
	assert.Equal(t, "from-env", jwtSecret, "environment overrides the vault")
	assert.Empty(t, stripeKey)
}

func TestVaultStore_Lookup(t *testing.T) {
	t.Run("caches until ttl expires", func(t *testing.T) {
		getter := &fakeGetter{values: map[string]string{"db-password": "pw"}}
		store := newVaultStore(getter, &VaultConfig{CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			v, err := store.Lookup(context.Background(), "db-password")
			require.NoError(t, err)
			assert.Equal(t, "pw", v)
		}
		assert.Equal(t, 1, getter.calls)

		now = now.Add(2 * time.Minute)
		_, err := store.Lookup(context.Background(), "db-password")
		require.NoError(t, err)
		assert.Equal(t, 2, getter.calls)
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		store := newVaultStore(&fakeGetter{values: map[string]string{}}, &VaultConfig{}, zap.NewNop())
		_, err := store.Lookup(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		boom := errors.New("network down")
		store := newVaultStore(&fakeGetter{err: boom}, &VaultConfig{}, zap.NewNop())
		_, err := store.Lookup(context.Background(), "db-password")
		assert.ErrorIs(t, err, boom)
	})
}
