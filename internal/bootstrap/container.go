package bootstrap

import (
	"context"
	"log"

	"content-optimizer-be/internal/config"
	"content-optimizer-be/internal/controller"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/internal/repository/memory"
	"content-optimizer-be/internal/service"
	"content-optimizer-be/pkg/events"
	"content-optimizer-be/pkg/seo/optimizer"

	pktNats "content-optimizer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	OptimizerController controller.IOptimizerController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Core
	Optimizer        *optimizer.Optimizer
	OptimizerService service.IOptimizerService
	Logger           logger.ILogger

	closers []func()
}

// Close releases bus and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewContainer builds the full dependency graph. External services (NATS,
// Redis) are optional; the container degrades to in-process behavior
// when they are unreachable. Invalid optimizer configuration is fatal.
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS
	var relay events.Publisher
	var requests events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		relay, requests = natsPub, natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	cacheOpts := CacheOptions(cfg)
	if cfg.Cache.UseRedis && cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Validation cache stays in memory", err)
			_ = rdb.Close()
		} else {
			cacheOpts.Redis = rdb
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	// 4. Optimization core
	engine, err := NewEngine(cfg, cacheOpts, events.NewWatermillPublisher(pubSub, cfg.App.EventTopic), sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Optimizer = engine.Optimizer
	pipeline := engine.Pipeline

	// 5. Services
	sessionRepo := memory.NewSessionRepository(cfg.Cache.SessionTTL)
	c.OptimizerService = service.NewOptimizerService(c.Optimizer, pipeline, sessionRepo, requests, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, relay, natsSub, c.OptimizerService, sysLogger)

	// 6. Controllers
	c.OptimizerController = controller.NewOptimizerController(c.OptimizerService)

	return c, nil
}
