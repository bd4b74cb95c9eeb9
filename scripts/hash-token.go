//go:build ignore

// Usage: go run scripts/hash-token.go <token>
// Prints the SHA-256 hash to seed a tenant's api_token_hash column and the
// bcrypt hash to use as ADMIN_TOKEN_HASH.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/hash-token.go <token>")
		os.Exit(1)
	}

	token := os.Args[1]

	sum := sha256.Sum256([]byte(token))
	fmt.Printf("sha256 (tenants.api_token_hash): %s\n", hex.EncodeToString(sum[:]))

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("bcrypt (ADMIN_TOKEN_HASH):       %s\n", hash)
}
