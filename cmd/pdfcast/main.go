package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/inkwave/pdfcast/internal/cli"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
