package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the user table's hashes were
// created with.
const bcryptCost = 12

func main() {
	hashCmd := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := hashCmd.String("password", "", "Plain password to hash")

	if len(os.Args) < 2 {
		fmt.Println("expected 'hash-password' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "hash-password":
		hashCmd.Parse(os.Args[2:])
		if *password == "" {
			fmt.Println("password is required")
			hashCmd.PrintDefaults()
			os.Exit(1)
		}
		hashPassword(*password)
	default:
		fmt.Println("expected 'hash-password' subcommand")
		os.Exit(1)
	}
}

// hashPassword prints a bcrypt hash suitable for the Password field of
// the Airtable user table.
func hashPassword(plain string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Printf("\nPlain:  %s\nHashed: %s\n\n", plain, string(hash))
}
