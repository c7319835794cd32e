// Command admin-token prints a bearer token for the admin server, signed with
// ADMIN_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/V4T54L/docqa/internal/pkg/config"
	"github.com/V4T54L/docqa/internal/pkg/logger"
	"github.com/V4T54L/docqa/internal/pkg/token"
)

func main() {
	subject := flag.String("subject", "operator", "Subject recorded in the token and the admin access log")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if cfg.AdminJWTSecret == "" {
		log.Error("ADMIN_JWT_SECRET is not set; the admin server accepts unauthenticated requests")
		os.Exit(1)
	}

	tok, err := token.Generate(*subject, cfg.AdminJWTSecret, *ttl)
	if err != nil {
		log.Error("failed to sign admin token", "error", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
