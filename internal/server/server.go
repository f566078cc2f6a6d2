package server

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/acadmate/livechat/internal/database"
	"github.com/acadmate/livechat/internal/fanout"
	"github.com/acadmate/livechat/internal/handlers"
	"github.com/acadmate/livechat/internal/services"
	ws "github.com/acadmate/livechat/internal/websocket"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	// With REDIS_URL set, broadcasts ride the pub/sub relay so every gateway
	// instance delivers them; without it the local hub is the whole world.
	var rdb *redis.Client
	var caster services.Broadcaster = hub
	if url := os.Getenv("REDIS_URL"); url != "" {
		redisOpts, err := redis.ParseURL(url)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis connect failed: %v", err)
		}

		relay := fanout.NewRedisFanout(rdb, hub)
		go relay.Run(context.Background())
		caster = relay
	}

	eventH := handlers.NewEventHandler(dbConn, hub, caster)
	wsH := handlers.NewWebSocketHandler(hub, eventH)

	router := gin.Default()
	APIEndpoints(router, wsH)

	return &Server{
		Router: router,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
