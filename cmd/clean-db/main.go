package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dev helper: wipe all roster data and re-seed a minimal role catalog.
func main() {
	ctx := context.Background()

	connStr := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		connStr = os.Args[1]
	}
	if connStr == "" {
		log.Fatal("usage: clean-db <connection-string> (or set DATABASE_URL)")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	fmt.Println("Cleaning database...")

	// Drop all data (in reverse dependency order)
	tables := []string{
		"role_assignments",
		"role_capabilities",
		"roles",
		"unit_assignments",
		"people",
		"squadrons",
		"wings",
	}

	for _, table := range tables {
		_, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			fmt.Printf("Warning: failed to truncate %s: %v\n", table, err)
		} else {
			fmt.Printf("✓ Cleared %s\n", table)
		}
	}

	// Re-insert default role catalog
	fmt.Println("\nRe-inserting default roles...")
	roles := []struct {
		name        string
		exclusivity string
		caps        []struct {
			capability string
			scope      string
		}
	}{
		{"Wing Commander", "wing", []struct{ capability, scope string }{
			{"view_roster", "wing"},
			{"manage_roster", "wing"},
		}},
		{"Squadron Leader", "squadron", []struct{ capability, scope string }{
			{"view_roster", "squadron"},
			{"manage_roster", "squadron"},
		}},
		{"Member", "none", []struct{ capability, scope string }{
			{"view_roster", "squadron"},
		}},
	}

	for _, r := range roles {
		var roleID string
		err := db.QueryRowContext(ctx, `
			INSERT INTO roles (id, name, exclusivity)
			VALUES (gen_random_uuid(), $1, $2)
			RETURNING id
		`, r.name, r.exclusivity).Scan(&roleID)
		if err != nil {
			log.Printf("Failed to insert role %s: %v", r.name, err)
			continue
		}

		for _, c := range r.caps {
			_, err := db.ExecContext(ctx, `
				INSERT INTO role_capabilities (id, role_id, capability, kind, allowed, scope)
				VALUES (gen_random_uuid(), $1, $2, 'scoped', true, $3)
			`, roleID, c.capability, c.scope)
			if err != nil {
				log.Printf("Failed to insert capability %s for %s: %v", c.capability, r.name, err)
			}
		}
		fmt.Printf("✓ Created role: %s\n", r.name)
	}

	fmt.Println("\n✓✓✓ Database cleaned and reset successfully!")
}
