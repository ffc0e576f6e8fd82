package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"lynxform/internal/cli"
	"lynxform/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	defer logger.Close()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Close()
		os.Exit(1)
	}
}
