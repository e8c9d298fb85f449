package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cedarwell/actbridge-backend/internal/app"
)

func main() {
	// Missing .env is fine in containerized deploys where config comes from
	// the environment directly.
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Log.Info("Starting server", "port", application.Cfg.Port)
	if err := application.Run(); err != nil {
		application.Log.Error("Server exited", "error", err)
		application.Close()
		os.Exit(1)
	}
}
