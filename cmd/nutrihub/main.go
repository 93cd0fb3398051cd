package main

import (
	"context"
	"log"
	"os"
	"time"

	v1 "nutrihub/api/v1"
	"nutrihub/internal/auth"
	"nutrihub/internal/cache"
	"nutrihub/internal/channels"
	"nutrihub/internal/config"
	"nutrihub/internal/db"
	"nutrihub/internal/notify"
	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"
	"nutrihub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
			os.Exit(1)
		}
		log.Println("✓ Database migrated")
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	// 4. Initialize JWT
	auth.InitJWT(cfg.JWT.Secret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Build the realtime layer. With Redis fan-out enabled events
	// travel through pub/sub so every node's hub sees them; otherwise
	// the hub itself is the broker and delivery stays in-process.
	hub := realtime.NewHub(logger)
	var broker realtime.Broker = hub
	if cfg.Realtime.RedisFanout {
		redisBroker := realtime.NewRedisBroker(cache.Client, logger)
		go redisBroker.Run(ctx, hub)
		broker = redisBroker
	}
	emitter := realtime.NewEmitter(broker, logger)

	snapshot := presence.NewSnapshot(cache.Client, time.Duration(cfg.Realtime.PresenceTTLSec)*time.Second)
	store := presence.NewStore(emitter, snapshot, logger)

	directory := channels.NewGormDirectory(db.GetDB())
	authorizer := channels.NewAuthorizer(directory, directory, directory, logger)

	notifySvc := notify.NewService(db.GetDB(), emitter, logger)
	wsServer := ws.NewServer(hub, emitter, authorizer, store, cfg.Realtime.SendBufferSize, logger)

	// 6. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	v1.SetupRouter(r, v1.Deps{
		DB:         db.GetDB(),
		Cfg:        cfg,
		Store:      store,
		Authorizer: authorizer,
		Directory:  directory,
		Emitter:    emitter,
		Notify:     notifySvc,
		WS:         wsServer,
	})

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
