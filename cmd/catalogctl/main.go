// Command catalogctl maintains the catalog files the server bootstraps from.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/JonMunkholm/brickshop/internal/core/sheets" // Register CSV and XLSX decoders
	"github.com/joho/godotenv"
)

func main() {
	// REBRICKABLE_API_KEY usually lives in .env
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
