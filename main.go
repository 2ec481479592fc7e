package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mugishapc/bvoice/internal/auth"
	"github.com/mugishapc/bvoice/internal/config"
	"github.com/mugishapc/bvoice/internal/db"
	"github.com/mugishapc/bvoice/internal/handlers"
	"github.com/mugishapc/bvoice/internal/middleware"
	"github.com/mugishapc/bvoice/internal/observability"
	"github.com/mugishapc/bvoice/internal/push"
	"github.com/mugishapc/bvoice/internal/rabbitmq"
	"github.com/mugishapc/bvoice/internal/repositories"
	"github.com/mugishapc/bvoice/internal/signaling"
	"github.com/mugishapc/bvoice/internal/telemetry"
	"github.com/mugishapc/bvoice/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "audit.bvoice", "bvoice", cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)

	provider := push.NewWebPushProvider(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	notifier := push.NewDispatcher(userRepo, provider, cfg.PushTimeout)

	hub := ws.NewHub(userRepo, publisher)
	relay := signaling.NewRelay(hub, userRepo)
	router := ws.NewRouter(hub, messageRepo, groupRepo, userRepo, relay, notifier)

	validator := auth.NewJWTValidator(cfg.JWTSecret)
	wsHandler := ws.NewHandler(hub, router, userRepo, validator, cfg.SendQueueSize)

	messageHandler := handlers.NewMessageHandler(messageRepo, groupRepo, userRepo, hub)
	groupHandler := handlers.NewGroupHandler(groupRepo, audit)

	engine := gin.Default()
	engine.Use(otelgin.Middleware("bvoice"))
	engine.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(validator)

	engine.GET("/messages/:user_id", authMiddleware, messageHandler.GetConversation)
	engine.GET("/group_messages/:group_id", authMiddleware, messageHandler.GetGroupMessages)
	engine.GET("/message/:message_id", authMiddleware, messageHandler.GetMessage)
	engine.POST("/message/:message_id/react", authMiddleware, messageHandler.React)
	engine.POST("/push_subscription", authMiddleware, messageHandler.SavePushSubscription)

	engine.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	engine.GET("/groups", authMiddleware, groupHandler.ListGroups)
	engine.PUT("/groups/:group_id", authMiddleware, groupHandler.UpdateGroup)

	engine.GET("/ws", wsHandler.Handle)
	engine.GET("/health", handlers.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
