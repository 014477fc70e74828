package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenDuration)

	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.False(t, cfg.Upstream.MockMode)
	assert.Equal(t, 15*time.Second, cfg.Upstream.ProbeInterval)

	assert.Equal(t, "./lojinha.db", cfg.Store.Path)

	assert.Equal(t, "ALUNO10", cfg.Storefront.CouponCode)
	assert.InDelta(t, 0.10, cfg.Storefront.CouponDiscount, 0.0001)
	assert.Equal(t, 9, cfg.Storefront.ProductsPerPage)
	assert.Equal(t, 300*time.Millisecond, cfg.Storefront.SearchDebounce)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the variable absent.
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", "9090")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("COUPON_CODE", "PROMO20")
	t.Setenv("COUPON_DISCOUNT", "0.2")
	t.Setenv("PRODUCTS_PER_PAGE", "12")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Upstream.MockMode)
	assert.Equal(t, "PROMO20", cfg.Storefront.CouponCode)
	assert.InDelta(t, 0.2, cfg.Storefront.CouponDiscount, 0.0001)
	assert.Equal(t, 12, cfg.Storefront.ProductsPerPage)
	assert.Equal(t, 150*time.Millisecond, cfg.Storefront.SearchDebounce)
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("COUPON_DISCOUNT", "1.5")
	t.Setenv("PRODUCTS_PER_PAGE", "0")
	t.Setenv("UPSTREAM_TIMEOUT", "not-a-duration")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "COUPON_DISCOUNT")
	assert.Contains(t, err.Error(), "PRODUCTS_PER_PAGE")
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
}

func TestDiscountBounds(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	t.Run("negative rejected", func(t *testing.T) {
		t.Setenv("COUPON_DISCOUNT", "-0.1")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("zero and one accepted", func(t *testing.T) {
		t.Setenv("COUPON_DISCOUNT", "0")
		_, err := LoadConfig()
		assert.NoError(t, err)

		t.Setenv("COUPON_DISCOUNT", "1")
		_, err = LoadConfig()
		assert.NoError(t, err)
	})
}
