package app

import (
	"github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/pkg/crypto"
)

// AccessJWTConfig converts AuthConfig into the access token codec parameters.
func (c AuthConfig) AccessJWTConfig() auth.JWTConfig {
	ttl := c.JWT.AccessTTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret: c.JWT.AccessSecret,
		Issuer: c.JWT.Issuer,
		TTL:    ttl,
	}
}

// RefreshJWTConfig converts AuthConfig into the refresh token codec parameters.
func (c AuthConfig) RefreshJWTConfig() auth.JWTConfig {
	ttl := c.JWT.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	return auth.JWTConfig{
		Secret: c.JWT.RefreshSecret,
		Issuer: c.JWT.Issuer,
		TTL:    ttl,
	}
}

// RefreshStoreConfig converts AuthConfig into RefreshTokenStore parameters.
func (c AuthConfig) RefreshStoreConfig() auth.RefreshConfig {
	ttl := c.JWT.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}
	return auth.RefreshConfig{TTL: ttl}
}

// LifecycleConfig converts AuthConfig into LifecycleService parameters.
func (c AuthConfig) LifecycleConfig(baseURL string) auth.LifecycleConfig {
	return auth.LifecycleConfig{
		ActivationTTL: c.Tokens.ActivationTTL,
		ResetTTL:      c.Tokens.ResetTTL,
		BaseURL:       baseURL,
	}
}

// Hasher builds the password hasher with the configured cost.
func (c AuthConfig) Hasher() *crypto.Hasher {
	return crypto.NewHasher(c.Local.BcryptCost)
}
