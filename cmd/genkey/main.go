package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"sprintbackend/cipher"
)

func main() {
	log.Printf("🔑 Generating new token encryption key...")

	key := make([]byte, cipher.KeySize)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("❌ Failed to generate encryption key: %v", err)
	}

	fmt.Printf("Generated encryption key: %s\n", hex.EncodeToString(key))
	log.Printf("✅ Successfully generated encryption key - set it as ENCRYPTION_KEY")
}
