package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/a2developers/website/backend/go-services/internal/tokens"
	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("hmac verifier: empty secret")
	ErrNotAdmin    = errors.New("token does not carry the admin role")
)

// claimsToken exposes already-verified claims through middleware.Token.
type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// HMACVerifier accepts HS256 admin tokens signed with a shared secret, as
// minted by tokens.GenerateAdminToken.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify admin token: %w", err)
	}
	if role, _ := claims["role"].(string); role != tokens.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return &claimsToken{claims: claims}, nil
}
