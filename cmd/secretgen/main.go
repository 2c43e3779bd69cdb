package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	secret := hex.EncodeToString(buf)

	fmt.Printf("Webhook secret: %s\n", secret)
	fmt.Println("\nExport it for the server:")
	fmt.Printf("  export GITHUB_WEBHOOK_SECRET=%s\n", secret)
	fmt.Println("\nAnd paste the same value into the GitHub webhook settings (Secret field).")
}
