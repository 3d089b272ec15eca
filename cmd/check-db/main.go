// Package main is a diagnostic tool for testing database connectivity and
// inspecting live dashboard data. It connects to the database, queries the
// users and qr_codes tables, and prints a summary to stdout. The binary exits
// with a non-zero code on any failure so it can be embedded in health checks
// or CI/CD pipeline steps to gate deployments on a reachable, populated
// database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "qr_dashboard"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=qr_dashboard password=%s dbname=qr_dashboard sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Database connection OK")

	var userCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	fmt.Printf("Users: %d\n", userCount)

	var codeCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM qr_codes").Scan(&codeCount); err != nil {
		log.Fatalf("Failed to count QR codes: %v", err)
	}
	fmt.Printf("QR codes: %d\n", codeCount)

	rows, err := db.Query(`
		SELECT u.email, COUNT(q.id) AS codes, COUNT(q.id) FILTER (WHERE q.scanned) AS scanned
		FROM users u
		LEFT JOIN qr_codes q ON q.user_id = u.id
		GROUP BY u.email
		ORDER BY codes DESC
		LIMIT 10`)
	if err != nil {
		log.Fatalf("Failed to query per-user summary: %v", err)
	}
	defer rows.Close()

	fmt.Println("\nTop users by QR code count:")
	for rows.Next() {
		var email string
		var codes, scanned int
		if err := rows.Scan(&email, &codes, &scanned); err != nil {
			log.Fatalf("Failed to scan row: %v", err)
		}
		fmt.Printf("  %-40s %4d codes, %4d scanned\n", email, codes, scanned)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration error: %v", err)
	}
}
