package server_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/server"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	gt.NoError(t, err)
	return token
}

func userClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestJWTAuthenticator(t *testing.T) {
	auth := server.NewJWTAuthenticator(testSecret)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		userID, err := auth.Authenticate(ctx, signToken(t, testSecret, userClaims("user-123")))
		gt.NoError(t, err)
		gt.Equal(t, userID, "user-123")
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, signToken(t, "other-secret", userClaims("user-123")))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		claims := userClaims("user-123")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := auth.Authenticate(ctx, signToken(t, testSecret, claims))
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})

	t.Run("no expiration", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-123"}))
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})

	t.Run("no subject", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, signToken(t, testSecret, userClaims("")))
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, userClaims("user-123")).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		gt.NoError(t, err)
		_, err = auth.Authenticate(ctx, token)
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "not-a-jwt")
		gt.True(t, errors.Is(err, server.ErrUnauthorized))
	})
}
