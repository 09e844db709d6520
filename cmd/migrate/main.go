// Command migrate applies (or rolls back) the embedded schema migrations.
package main

import (
	"errors"
	"flag"
	"log"

	"stepup-auth-gateway/internal/config"
	"stepup-auth-gateway/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	err = migrate.Run(cfg.DatabaseURL, *direction)
	switch {
	case err == nil:
		log.Printf("migrations %s: done", *direction)
	case errors.Is(err, migrate.ErrNoChange):
		log.Printf("migrations %s: schema already current", *direction)
	default:
		log.Fatalf("migrate: %v", err)
	}
}
