package main

import (
	"tourchat-backend/internal/api"
	"tourchat-backend/internal/api/router"
	"tourchat-backend/internal/database"
	"tourchat-backend/internal/env"
	"tourchat-backend/internal/queue"
	chatservice "tourchat-backend/internal/service/chat"
	"tourchat-backend/internal/websocket"
	"log"
)

func main() {
	env.MustHave(env.AWSRegion, env.AWSID, env.AWSSecret)

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	handler := websocket.NewHandler(hub, websocket.NewRegistry(), chatservice.New(db))

	server := api.NewAPIServer(
		":83",
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/ws/v1"),
		router.WebsocketRoutes("/api/ws/v1"),
	)

	server.Run()
}
