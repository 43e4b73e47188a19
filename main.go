package main

import (
	stdlog "log"

	"github.com/joho/godotenv"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	cmd.Execute()
}
