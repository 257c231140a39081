package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/intellectualintimacy/backend/internal/server"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Warn("no .env file found, relying on environment")
	}

	if err := server.Start(); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
