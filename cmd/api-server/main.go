package main

import (
	"tourchat-backend/internal/api"
	"tourchat-backend/internal/api/router"
	"tourchat-backend/internal/database"
	"tourchat-backend/internal/env"
	"tourchat-backend/internal/queue"
	"log"
)

func main() {
	env.MustHave(env.AWSRegion, env.AWSID, env.AWSSecret)

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	server := api.NewAPIServer(
		":81",
		queueManager,
		db,
		nil,
		router.UtilsRoutes("/api/v1"),
		router.AuthRoutes("/api/v1"),
		router.ChatRoutes("/api/v1"),
		router.AdminChatRoutes("/api/v1"),
	)

	server.Run()
}
