package server

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/goerr/v2"
)

var ErrUnauthorized = goerr.New("unauthorized")

// Authenticator resolves a bearer token into the caller's external user id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// JWTAuthenticator verifies HS256 tokens signed with a shared secret. The
// user id is taken from the sub claim.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

var _ Authenticator = (*JWTAuthenticator)(nil)

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (x *JWTAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := x.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return x.secret, nil
	}); err != nil {
		return "", goerr.Wrap(ErrUnauthorized, err.Error())
	}

	if claims.Subject == "" {
		return "", goerr.Wrap(ErrUnauthorized, "token has no subject")
	}
	return claims.Subject, nil
}

// extractBearer returns the token of an Authorization header value. A value
// without the Bearer scheme is taken as the raw token.
func extractBearer(header string) string {
	h := strings.TrimSpace(header)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
