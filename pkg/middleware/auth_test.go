package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" {
		return &fakeToken{data: map[string]interface{}{"sub": "admin-1", "role": "admin"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func authRouter() *gin.Engine {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		claims, _ := c.Get(CtxClaims)
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})
	return g
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "Missing Authorization header"},
		{"wrong scheme", "Basic abc", "Invalid Authorization header"},
		{"empty bearer", "Bearer ", "Invalid Authorization header"},
		{"bad token", "Bearer nope", "Invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(authRouter(), req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.want), w.Body.String())
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	w := serve(authRouter(), req)

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Claims map[string]interface{} `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "admin-1", got.Claims["sub"])
}
