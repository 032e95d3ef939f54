package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/rabinkaspal/mongodb-aggregation/aggregations"
	"github.com/rabinkaspal/mongodb-aggregation/database"
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

	if err := aggregations.RunBasic(ctx, store); err != nil {
		log.Fatal("Error in basic aggregation pipelines: ", err)
	}
}
