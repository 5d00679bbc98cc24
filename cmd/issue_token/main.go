package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/service"

	"github.com/joho/godotenv"
)

// issue_token mints a player token for local testing.
func main() {
	_ = godotenv.Load()

	id := flag.Int64("id", 1, "player id")
	name := flag.String("name", "tester", "display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	tokens, err := service.NewTokenService(secret, *ttl, 0)
	if err != nil {
		log.Fatal(err)
	}
	token, err := tokens.IssuePlayer(*id, *name)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
}
