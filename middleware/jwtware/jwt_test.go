package jwtware_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pageauth/pageauth/middleware/jwtware"
	"github.com/stretchr/testify/assert"
)

func TestClaimsRole(t *testing.T) {
	assert.Equal(t, "admin", jwtware.ClaimsRole(jwt.MapClaims{"role": "admin"}))
	assert.Equal(t, "", jwtware.ClaimsRole(jwt.MapClaims{}))
	assert.Equal(t, "", jwtware.ClaimsRole(jwt.MapClaims{"role": 42}))
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte("secret"), JWTAlg: "HS256"},
	})

	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.NotNil(t, cfg.KeyFunc)
	assert.NotNil(t, cfg.SuccessHandler)
	assert.NotNil(t, cfg.ErrorHandler)
	assert.NotNil(t, cfg.LocalTokenSerilizer)
}

func TestGetDefaultConfigPanicsWithoutKey(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	})
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,cookie:user,query:token,param:token")
	assert.Len(t, extractors, 4)

	extractors = jwtware.GetExtractors("cookie:user")
	assert.Len(t, extractors, 1)

	extractors = jwtware.GetExtractors("bogus:thing")
	assert.Empty(t, extractors)
}

func TestSigningKeyFuncRejectsWrongAlg(t *testing.T) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte("secret"), JWTAlg: "HS256"},
	})

	token := jwt.New(jwt.SigningMethodHS384)
	_, err := cfg.KeyFunc(token)
	assert.Error(t, err)

	token = jwt.New(jwt.SigningMethodHS256)
	key, err := cfg.KeyFunc(token)
	assert.NoError(t, err)
	assert.Equal(t, []byte("secret"), key)
}
