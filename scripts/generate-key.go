// Package main is a development utility for generating a random JWT signing
// secret. Session tokens are signed with HMAC-SHA256, so the secret must be
// high-entropy and at least 32 bytes. This tool prints a fresh secret plus a
// ready-to-paste export line so developers can configure QRD_JWT_SECRET for a
// local instance without inventing a weak value by hand. Do not reuse generated
// secrets across environments — rotating the secret invalidates all sessions.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 48)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	// Encode to base64
	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nSecret: %s\n", secret)
	fmt.Println("\n==========================================================")
	fmt.Println("Shell export:")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport QRD_JWT_SECRET='%s'\n", secret)
	fmt.Println("\n==========================================================")
}
