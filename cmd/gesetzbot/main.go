package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/gesetzbot/gesetzbot/internal/cli"
)

func main() {
	// A missing .env is fine; the environment may already carry the keys.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
