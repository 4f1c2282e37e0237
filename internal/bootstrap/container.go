package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"well-bot-be/internal/config"
	"well-bot-be/internal/controller"
	"well-bot-be/internal/handler"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/memory"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/internal/service"
	"well-bot-be/internal/websocket"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/database"
	"well-bot-be/pkg/embedding"
	"well-bot-be/pkg/events"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/llm"
	"well-bot-be/pkg/llm/factory"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/safety"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/topiccache"
	"well-bot-be/pkg/turn"

	pktNats "well-bot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const module = "Container"

type Container struct {
	Logger *logger.ZapLogger

	// Controllers
	TurnController         controller.ITurnController
	ToolController         controller.IToolController
	SessionController      controller.ISessionController
	ConversationController controller.IConversationController
	DiagnosticsController  controller.IDiagnosticsController
	HealthController       controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	TurnRecorder    *service.TurnRecorder
	RuleWatcher     *safety.RuleWatcher // nil without a rules file

	// WebSockets
	SessionSocketHandler *handler.SessionSocketHandler
	WebSocketHub         *websocket.Hub

	Orchestrator *turn.Orchestrator
	Toolbox      turn.Toolbox

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

// NewContainer wires every component. ctx bounds the lifetime of websocket sessions.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sampler := logger.NewCardSampler(sysLogger, cfg.App.CardLogSampleRate)

	// 2. Event Bus (index-time embedding)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewProvider(embedding.Config{
		Provider: cfg.Ai.EmbeddingProvider,
		Model:    cfg.Ai.EmbeddingModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Keys.GoogleGemini,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	sysLogger.Info(module, "Using Embedding Provider", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"model":    embeddingProvider.Model(),
	})

	llmBaseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "deepseek" {
		llmBaseURL = cfg.Ai.DeepSeekBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     llmBaseURL,
		APIKey:      cfg.Keys.DeepSeek,
		Temperature: cfg.Ai.LLMTemperature,
		MaxTokens:   cfg.Ai.LLMMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sysLogger.Info(module, "Using LLM Provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(module, "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(module, "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	}
	var eventPublisher events.Publisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn(module, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		sysLogger.Warn(module, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Safety
	rules := safety.DefaultRuleSet(cfg.Safety.DebounceWindow, cfg.Safety.NegationWindow)
	if cfg.Safety.RulesPath != "" {
		loaded, err := safety.LoadRuleSet(cfg.Safety.RulesPath, cfg.Safety.DebounceWindow, cfg.Safety.NegationWindow)
		if err != nil {
			return nil, fmt.Errorf("load safety rules: %w", err)
		}
		rules = loaded
	}
	gate := safety.NewGate(rules, cfg.Safety.Budget, sysLogger)

	var ruleWatcher *safety.RuleWatcher
	if cfg.Safety.RulesPath != "" {
		ruleWatcher, err = safety.NewRuleWatcher(cfg.Safety.RulesPath, gate, cfg.Safety.DebounceWindow, cfg.Safety.NegationWindow, sysLogger)
		if err != nil {
			sysLogger.Warn(module, "Safety rules will not hot-reload", map[string]interface{}{"error": err.Error()})
		}
	}

	// 6. Intent & Retrieval
	resolver := intent.NewResolver(intent.NewLLMClassifier(llmProvider), cfg.Intent.Budget, sysLogger)

	gateway := retrieval.NewGateway(embeddingProvider, service.NewMemoryIndex(uowFactory), retrieval.Config{
		RankConfig: retrieval.RankConfig{
			MinScore:      cfg.Retrieval.MinScore,
			RecencyDecay:  cfg.Retrieval.RecencyDecay,
			RecencyWeight: cfg.Retrieval.RecencyWeight,
			TokenBudget:   cfg.Retrieval.TokenBudget,
			TopK:          cfg.Retrieval.TopK,
		},
		Budget:        cfg.Retrieval.Budget,
		EmbedCacheTTL: cfg.Retrieval.EmbedCacheTTL,
	}, sysLogger)
	if err := gateway.VerifyModel(ctx); err != nil {
		if errors.Is(err, retrieval.ErrModelMismatch) {
			return nil, err
		}
		sysLogger.Warn(module, "Could not verify indexed embedding model", map[string]interface{}{"error": err.Error()})
	}

	// 7. Services
	indexPublisher := service.NewIndexPublisher(cfg.Keys.IndexTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IndexTopic,
		uowFactory,
		embeddingProvider, // Injected
		sysLogger,
	)

	activityRecorder := service.NewActivityRecorder(eventPublisher, uowFactory, sysLogger)
	if natsSub != nil {
		if err := natsSub.Subscribe(ctx, events.TypeActivityLogged, "activity-writer", service.NewActivityEventHandler(uowFactory, sysLogger)); err != nil {
			sysLogger.Warn(module, "Activity events will not be persisted from the bus", map[string]interface{}{"error": err.Error()})
		}
	}

	activityService := service.NewActivityService(uowFactory, activityRecorder)
	tools := service.Tools{
		Journal:    service.NewJournalService(uowFactory, indexPublisher, activityRecorder, sysLogger),
		Gratitude:  service.NewGratitudeService(uowFactory, indexPublisher, activityRecorder, sysLogger),
		Todo:       service.NewTodoService(uowFactory, memory.NewArmedRepository(cfg.Session.ArmTTL), indexPublisher, activityRecorder, sysLogger),
		Quote:      service.NewQuoteService(uowFactory, llmProvider, cfg.Ai.ReflectionBudget, activityRecorder, sysLogger),
		Meditation: service.NewMeditationService(uowFactory, activityRecorder, sysLogger),
		Session:    service.NewSessionService(),
		Activity:   activityService,
		Memory:     service.NewMemoryService(gateway),
		Safety:     service.NewSafetyService(gate),
	}
	toolbox, err := tools.Toolbox()
	if err != nil {
		return nil, err
	}

	// 8. Turn pipeline
	registry := turn.NewRegistry(turn.RegistryConfig{
		Session: session.Config{
			WarnAfter:           cfg.Session.WarnAfter,
			SecondWarnAfter:     cfg.Session.SecondWarnAfter,
			EndAfter:            cfg.Session.EndAfter,
			ActivationPhrase:    cfg.Session.ActivationPhrase,
			ActivationVariants:  cfg.Session.ActivationVariants,
			ActivationThreshold: cfg.Session.ActivationThreshold,
		},
		TopicCache: topiccache.Config{
			Threshold: cfg.TopicCache.Threshold,
			TTL:       cfg.TopicCache.TTL,
			HitCap:    cfg.TopicCache.HitCap,
		},
		IdleTimeout: cfg.Session.IdleEvict,
	}, timerNotifier(wsHub, eventPublisher, sysLogger))

	turnRecorder := service.NewTurnRecorder(uowFactory, indexPublisher, eventPublisher, 0, sysLogger)

	orchestrator, err := turn.NewOrchestrator(
		turn.Config{
			RetrievalBudget:  cfg.Retrieval.Budget,
			RetrievalKinds:   retrieval.AllKinds,
			TopK:             cfg.Retrieval.TopK,
			ResponderTimeout: cfg.Ai.ResponderTimeout,
		},
		registry,
		gate,
		resolver,
		gateway,
		service.NewChatResponder(llmProvider, llm.WithMaxTokens(cfg.Ai.LLMMaxTokens)),
		tools.Dispatch(),
		sampler,
		sysLogger,
		turnRecorder,
	)
	if err != nil {
		return nil, err
	}

	// 9. Health
	checks := map[string]controller.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"nats": func(ctx context.Context) error {
			if !natsPub.Connected() {
				return errors.New("nats not connected")
			}
			return nil
		},
	}

	socketHandler := handler.NewSessionSocketHandler(ctx, wsHub, orchestrator, handler.AuthConfig{
		Mode:      cfg.Auth.Mode,
		StaticKey: cfg.Auth.StaticKey,
		JwtSecret: cfg.Auth.JwtSecret,
	}, wsLogger)

	// 10. Controllers
	return &Container{
		Logger: sysLogger,

		TurnController:         controller.NewTurnController(orchestrator),
		ToolController:         controller.NewToolController(orchestrator, toolbox, sysLogger),
		SessionController:      controller.NewSessionController(registry, orchestrator, toolbox),
		ConversationController: controller.NewConversationController(service.NewConversationService(uowFactory)),
		DiagnosticsController:  controller.NewDiagnosticsController(sysLogger, activityService),
		HealthController:       controller.NewHealthController(checks),

		ConsumerService: consumerService,
		TurnRecorder:    turnRecorder,
		RuleWatcher:     ruleWatcher,

		SessionSocketHandler: socketHandler,
		WebSocketHub:         wsHub,

		Orchestrator: orchestrator,
		Toolbox:      toolbox,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
	}, nil
}

// timerNotifier delivers timer cards to connected clients and announces inactivity ends
func timerNotifier(hub *websocket.Hub, publisher events.Publisher, log logger.ILogger) session.Notifier {
	return func(sessionID string, c card.Card) {
		hub.Notify(sessionID, c)

		if publisher == nil || c.Diagnostics.Tool != session.ToolEnd {
			return
		}
		reason, _ := c.Meta["reason"].(string)
		// user id is not known outside a turn
		if err := publisher.Publish(context.Background(), events.SessionEnded("", sessionID, reason)); err != nil {
			log.Warn(module, "Failed to publish session end", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

// Close releases bus and cache connections
func (c *Container) Close() {
	c.natsSub.Close()
	c.natsPub.Close()
	if err := c.pubSub.Close(); err != nil {
		c.Logger.Warn(module, "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if err := c.rdb.Close(); err != nil {
		c.Logger.Warn(module, "Failed to close redis", map[string]interface{}{"error": err.Error()})
	}
	_ = c.Logger.Sync()
}
