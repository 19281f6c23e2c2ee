package main

import (
	"github.com/joho/godotenv"

	"github.com/ragrep/ragrep/internal/cli"
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cli.Execute()
}
