// cmd/seeder/main.go
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/config"
	"github.com/engagecrm/engage-backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/customers.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}
		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		log.WithField("file", file).Info("seeded")
	}

	log.Info("database seeding completed")
}
