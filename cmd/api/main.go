package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"go-todo-api/internal/config"
	"go-todo-api/internal/database"
	"go-todo-api/internal/routes"
)

func main() {
	// .envがあれば読み込む (本番では環境変数を直接設定する想定)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal: Failed to load configuration: %v", err)
	}

	db := database.InitDB(cfg)
	defer db.Close()

	r := routes.SetupRouter(db, cfg)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	log.Printf("Server listening on port %d...", cfg.AppPort)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
