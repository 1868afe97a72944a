package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deterministic development credentials. Never load these into a real
// environment.
const (
	devAPIKeyID  = "key_dev_000000000000000000000001"
	devAPIKeyRaw = "wsp_dev_0000000000000000000000000000000000000000000000000000"
)

const devTemplate = `{
  "$schema": "https://schema.management.azure.com/schemas/2019-04-01/deploymentTemplate.json#",
  "contentVersion": "1.0.0.0",
  "parameters": {},
  "resources": []
}`

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding portal database...")

	hash := sha256.Sum256([]byte(devAPIKeyRaw))
	keyHash := hex.EncodeToString(hash[:])

	_, err = pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at)
		 VALUES ($1, 'dev', $2, $3, '{"*:*"}', now())
		 ON CONFLICT (id) DO NOTHING`,
		devAPIKeyID, keyHash, devAPIKeyRaw[:12],
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed api key: %v\n", err)
		os.Exit(1)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO templates (name, description, kind, content, updated_at)
		 VALUES ('empty', 'Empty ARM template for workshops without shared infrastructure', 'arm', $1, now())
		 ON CONFLICT (name) DO NOTHING`,
		devTemplate,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed template: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
	fmt.Printf("Dev API key: %s\n", devAPIKeyRaw)
}
