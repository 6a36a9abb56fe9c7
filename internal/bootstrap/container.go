package bootstrap

import (
	"context"
	"log"

	"tarot-oracle-be/internal/config"
	"tarot-oracle-be/internal/controller"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/repository/memory"
	"tarot-oracle-be/internal/repository/unitofwork"
	"tarot-oracle-be/internal/service"
	"tarot-oracle-be/pkg/events"
	"tarot-oracle-be/pkg/llm/factory"
	pktNats "tarot-oracle-be/pkg/nats"
	"tarot-oracle-be/pkg/oracle/intent"
	"tarot-oracle-be/pkg/oracle/interpreter"
	oraclememory "tarot-oracle-be/pkg/oracle/memory"
	"tarot-oracle-be/pkg/oracle/sufficiency"
	"tarot-oracle-be/pkg/stream"
	"tarot-oracle-be/pkg/tarot"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var features = []string{"two-phase-reading", "sectioned-streaming", "paywall", "memory", "identity-transfer"}

type Container struct {
	// Controllers
	OracleController controller.IOracleController
	SystemController controller.ISystemController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Infrastructure shared with the server
	Logger logger.ILogger
	Redis  *redis.Client

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction(), logger.ParseLevel(cfg.App.LogLevel))
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var eventPublisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "NATS unavailable, domain events are dropped", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			sysLogger.Warn("Bootstrap", "Redis unavailable, rate limits stay in memory", map[string]interface{}{
				"error": err.Error(),
			})
			_ = rdb.Close()
		} else {
			c.Redis = rdb
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	// 4. Generative backend
	llmProvider, err := factory.NewLLMProvider(context.Background(), factory.Config{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		FallbackModels: cfg.Ai.FallbackModels,
		BaseURL:        cfg.LLMBase(),
		APIKey:         cfg.LLMKey(),
		Timeout:        cfg.Ai.LLMTimeout,
	}, llmLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	pool, err := tarot.NewStandardPool(tarot.StdRNG{})
	if err != nil {
		log.Fatalf("[FATAL] Failed to load deck: %v", err)
	}

	// 5. In-memory state
	anonymousCache := memory.NewAnonymousCache(cfg.Oracle.AnonCacheTTL, nil)
	permissionCache := memory.NewPermissionCache(cfg.Oracle.PermissionCacheTTL)

	// 6. Services
	memoryQueue := service.NewPublisherService(cfg.Oracle.MemoryTopic, pubSub)
	extractor := oraclememory.NewExtractor(llmProvider, service.NewMemoryStore(uowFactory), llmLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Oracle.MemoryTopic, extractor, eventPublisher, sysLogger)

	oracleService := service.NewOracleService(
		service.OracleConfig{
			DrawMode:  cfg.Oracle.CardDrawMode,
			TitleWait: cfg.Oracle.TitleWait,
		},
		uowFactory,
		intent.NewDecider(llmProvider, llmLogger),
		sufficiency.NewEvaluator(llmProvider, llmLogger),
		interpreter.NewInterpreter(llmProvider, llmLogger),
		pool,
		permissionCache,
		anonymousCache,
		stream.DelayPacer{Delay: cfg.Oracle.SectionRevealDelay},
		memoryQueue,
		eventPublisher,
		sysLogger,
	)
	transferService := service.NewTransferService(uowFactory, anonymousCache, permissionCache, eventPublisher, sysLogger)

	// 7. Controllers
	c.OracleController = controller.NewOracleController(oracleService, transferService, sysLogger)
	c.SystemController = controller.NewSystemController(cfg.App.Environment, controller.VersionInfo{
		Version:  cfg.App.Version,
		Commit:   cfg.App.Commit,
		Features: features,
	})

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
