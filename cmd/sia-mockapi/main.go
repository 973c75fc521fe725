// ABOUTME: Entry point for the local SIA mock backend used for development and demos
// ABOUTME: Serves every console endpoint in memory with a seeded staff account

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/sia-console/internal/config"
	"github.com/2389/sia-console/internal/logging"
	"github.com/2389/sia-console/internal/mockapi"
)

const (
	defaultSeedEmail    = "admin@sia.local"
	defaultSeedPassword = "admin12345"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env is normal
	_ = godotenv.Load()

	configPath := config.DefaultPath()
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.Setup(cfg.Logging)

	mc := cfg.MockAPI
	secret := []byte(mc.JWTSecret)
	if len(secret) == 0 {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("no mockapi.jwt_secret configured, tokens will not survive a restart")
	}

	srv, err := mockapi.New(mockapi.Options{
		JWTSecret:  secret,
		AccessTTL:  mc.AccessTTL,
		RefreshTTL: mc.RefreshTTL,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating mock backend: %w", err)
	}

	email, password := mc.SeedEmail, mc.SeedPassword
	if email == "" {
		email = defaultSeedEmail
	}
	if password == "" {
		password = defaultSeedPassword
	}
	if _, err := srv.AddUser(email, password, "Sia", "Admin", true); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	ln, err := net.Listen("tcp", mc.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", mc.Addr, err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("API:       http://%s\n", ln.Addr())
	green.Print("    ▶ ")
	fmt.Printf("Docs:      http://%s/api/docs/\n", ln.Addr())
	green.Print("    ▶ ")
	fmt.Printf("Metrics:   http://%s/metrics\n", ln.Addr())
	green.Print("    ▶ ")
	fmt.Printf("Login:     %s / %s\n", email, password)
	fmt.Println()

	return srv.Run(ctx, ln)
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating jwt secret: %w", err)
	}
	return []byte(hex.EncodeToString(b)), nil
}
