package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

// Prints a set of signed synapse headers for the configured wallet hotkey,
// handy for poking a miner axon with curl.
func main() {
	message := flag.String("message", "", "message to sign; defaults to a fresh request message")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	keypair, err := signature.LoadKeypairFromHotkey(context.Background(), cfg.WalletColdkey, cfg.WalletHotkey)
	if err != nil {
		log.Fatalf("Failed to load private key: %v", err)
	}
	provider, err := signature.NewProvider(keypair)
	if err != nil {
		log.Fatalf("Failed to create signature provider: %v", err)
	}

	var sig string
	if *message == "" {
		*message, sig, err = signature.SignRequest(provider, time.Now())
	} else {
		sig, err = provider.Sign(*message)
	}
	if err != nil {
		log.Fatalf("Failed to sign message: %v", err)
	}

	ok, err := signature.Verify(*message, sig, provider.Hotkey())
	if err != nil {
		log.Fatalf("Failed to verify signature: %v", err)
	}
	if !ok {
		log.Fatalf("Signature did not verify against %s", provider.Hotkey())
	}

	fmt.Printf("%s: %s\n", synapse.HotkeyHeader, provider.Hotkey())
	fmt.Printf("%s: %s\n", synapse.MessageHeader, *message)
	fmt.Printf("%s: %s\n", synapse.SignatureHeader, sig)
}
