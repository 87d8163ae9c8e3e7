package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/valentine-apple/vouchers-api/logging"
)

// Quick utility to generate a bcrypt hash for seeding the admin account
// Usage: go run scripts/seed_admin_password.go <password>
func main() {
	logger := logging.New()

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/seed_admin_password.go <password>")
		os.Exit(1)
	}

	password := os.Args[1]

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Errorf("error generating hash: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	fmt.Printf("\nTo seed the admin in MongoDB, run:\n")
	fmt.Printf("db.users.insertOne(\n")
	fmt.Printf("  {username: \"admin\", password: \"%s\", isAdmin: true, createdAt: new Date()}\n", string(hashedPassword))
	fmt.Printf(")\n")
}
