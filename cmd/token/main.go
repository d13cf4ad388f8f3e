// Command token mints a bearer token for the status API when auth is
// enabled. The secret comes from JWT_SECRET or the -secret flag.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"market-opportunity-scanner/internal/api"
)

func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret")
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "a signing secret is required (-secret or JWT_SECRET)")
		os.Exit(1)
	}

	token, err := api.IssueToken(*secret, *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token generation failed:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
