package main

import (
	"github.com/joho/godotenv"

	"github.com/ajharbinger/guest-risk-scorer/internal/cli"
)

func main() {
	// Missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	cli.Execute()
}
