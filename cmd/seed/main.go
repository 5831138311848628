// seed applies the schema and provisions the first admin account.
// Run: ADMIN_EMAIL=you@example.com ADMIN_PASSWORD='...' go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/procura-app/procura/internal/infrastructure/postgres"
	"github.com/procura-app/procura/internal/password"
)

const schemaFile = "migrations/0001_init.sql"

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if violations := password.CheckPolicy(adminPassword); len(violations) > 0 {
		log.Fatalf("ADMIN_PASSWORD rejected: %s", strings.Join(violations, "; "))
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile(schemaFile)
	if err != nil {
		log.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	hash, err := password.Hash(adminPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	// Idempotent: re-running refreshes the hash and keeps the admin role.
	var adminID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (provider, email, password_hash, name, role)
		VALUES ('password', $1, $2, 'Administrator', 'admin')
		ON CONFLICT (LOWER(email)) WHERE email IS NOT NULL
		DO UPDATE SET password_hash = EXCLUDED.password_hash, role = 'admin', updated_at = NOW()
		RETURNING id`,
		adminEmail, hash,
	).Scan(&adminID)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Admin:    %s\n", adminEmail)
	fmt.Printf("  User ID:  %d\n", adminID)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — fetch a CSRF token:")
	fmt.Println()
	fmt.Println("    curl -s -c jar.txt http://localhost:8080/auth/csrf")
	fmt.Println("    # → {\"csrf\":\"...\"}")
	fmt.Println()
	fmt.Println("  Step 2 — log in (cookie + header must match):")
	fmt.Println()
	fmt.Printf("    curl -s -b jar.txt -c jar.txt -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' -H 'X-CSRF-Token: CSRF' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"...\"}'\n", adminEmail)
	fmt.Println()
	fmt.Println("  Step 3 — who am I:")
	fmt.Println()
	fmt.Println("    curl -s -b jar.txt http://localhost:8080/auth/me")
}
