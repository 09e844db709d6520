// seed inserts development sample accounts for local testing.
// Idempotent: skips users that already exist.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/config"
	"stepup-auth-gateway/internal/db"
	"stepup-auth-gateway/internal/security"
	userdomain "stepup-auth-gateway/internal/user/domain"
	userrepository "stepup-auth-gateway/internal/user/repository"
)

const devPassword = "password123"

var devUsers = []struct {
	username string
	roles    []string
}{
	{"admin", []string{userdomain.RoleUser, userdomain.RoleAdmin}},
	{"alice", []string{userdomain.RoleUser}},
	{"bob", []string{userdomain.RoleUser}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	users := userrepository.NewPostgresRepository(pool)
	hasher := security.NewHasher(cfg.BcryptCost)
	ctx := context.Background()

	for _, u := range devUsers {
		existing, err := users.GetByUsername(ctx, u.username)
		if err != nil {
			log.Fatalf("seed: lookup %s: %v", u.username, err)
		}
		if existing != nil {
			fmt.Printf("seed: %s already exists, skipping\n", u.username)
			continue
		}
		hash, err := hasher.Hash([]byte(devPassword))
		if err != nil {
			log.Fatalf("seed: hash password: %v", err)
		}
		err = users.Create(ctx, &userdomain.User{
			ID:           uuid.New(),
			Username:     u.username,
			PasswordHash: hash,
			Roles:        u.roles,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			log.Fatalf("seed: create %s: %v", u.username, err)
		}
		fmt.Printf("seed: created %s (password %q)\n", u.username, devPassword)
	}
}
