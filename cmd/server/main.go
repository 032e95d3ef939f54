package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/rabinkaspal/mongodb-aggregation/controllers"
	"github.com/rabinkaspal/mongodb-aggregation/database"
	"github.com/rabinkaspal/mongodb-aggregation/routes"
	"github.com/rabinkaspal/mongodb-aggregation/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: error loading .env file:", err)
	}

	ctx := context.Background()
	store, err := database.ConnectFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer store.Close(ctx)

	analytics := &controllers.Analytics{
		Runner: store,
		Seed: func(ctx context.Context) error {
			return seed.Database(ctx, store)
		},
	}

	// Optional scheduled reseed, e.g. SEED_CRON="0 3 * * *" for a fresh
	// dataset every night.
	if spec := os.Getenv("SEED_CRON"); spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if err := seed.Database(context.Background(), store); err != nil {
				log.Println("Scheduled reseed failed:", err)
			}
		}); err != nil {
			log.Fatal("Invalid SEED_CRON: ", err)
		}
		c.Start()
		defer c.Stop()
	}

	r := gin.Default()
	routes.Setup(r, analytics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Starting server on :" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
