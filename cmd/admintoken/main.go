// Command admintoken prints an HS256 bearer token for GET /api/demos.
//
//	ADMIN_JWT_SECRET=... admintoken -sub ops@example.com -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/a2developers/website/backend/go-services/internal/config"
	"github.com/a2developers/website/backend/go-services/internal/tokens"
	"github.com/a2developers/website/backend/go-services/pkg/logger"
)

func main() {
	sub := flag.String("sub", "admin", "subject claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)

	secret := config.LoadAdminSecret()
	if secret == "" {
		logger.Fatalf("ADMIN_JWT_SECRET is not set")
	}
	tok, err := tokens.GenerateAdminToken(secret, *sub, *ttl)
	if err != nil {
		logger.Fatalf("generate admin token: %v", err)
	}
	fmt.Println(tok)
}
