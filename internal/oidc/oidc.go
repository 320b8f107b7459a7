package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks ID tokens issued by an OpenID Connect provider and requires
// the admin role in a configurable claim.
type Verifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim []string
	role      string
}

// NewVerifier discovers the provider at issuer and verifies tokens for clientID.
// roleClaim is a dot path into the claims (e.g. "realm_access.roles"); the
// value there must equal role or be a list containing it.
func NewVerifier(ctx context.Context, issuer, clientID, roleClaim, role string) (*Verifier, error) {
	if roleClaim == "" || role == "" {
		return nil, fmt.Errorf("OIDC role claim and role are required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{
		verifier:  provider.Verifier(&oidc.Config{ClientID: clientID}),
		roleClaim: strings.Split(roleClaim, "."),
		role:      role,
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", err)
	}
	if !hasRole(lookup(claims, v.roleClaim), v.role) {
		return nil, ErrNotAdmin
	}
	return idToken, nil
}

func lookup(claims map[string]interface{}, path []string) interface{} {
	var cur interface{} = claims
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func hasRole(v interface{}, role string) bool {
	switch val := v.(type) {
	case string:
		return val == role
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok && s == role {
				return true
			}
		}
	}
	return false
}
