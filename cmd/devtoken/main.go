// Command devtoken prints a bearer token for a user ID, signed with JWT_SECRET.
// Real tokens come from the authentication service; this is for local testing only.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"fitevents/config"
	"fitevents/internal/adapters/auth"
)

func main() {
	userID := flag.String("user", "", "user ID (UUID) to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if _, err := uuid.Parse(*userID); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken: -user must be a UUID")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	token, err := auth.NewJWT(cfg.JWTSecret).Issue(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
