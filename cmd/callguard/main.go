package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/callguard/callguard/pkg/app/pipeline"
	"github.com/callguard/callguard/pkg/config"
	handlers "github.com/callguard/callguard/pkg/handlers/http"
	"github.com/callguard/callguard/pkg/infra/audio"
	infraCache "github.com/callguard/callguard/pkg/infra/cache"
	"github.com/callguard/callguard/pkg/infra/contentsafety"
	infraLogger "github.com/callguard/callguard/pkg/infra/logger"
	"github.com/callguard/callguard/pkg/infra/prometheus"
	"github.com/callguard/callguard/pkg/infra/providers"
	"github.com/callguard/callguard/pkg/infra/providers/factory"
	"github.com/callguard/callguard/pkg/infra/search"
	"github.com/callguard/callguard/pkg/infra/speech"
	"github.com/callguard/callguard/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger("callguard")

	// Load configuration
	if err := config.Load("./config"); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	prometheus.Initialize()

	normalizer := audio.NewFFmpegNormalizer(cfg.Audio.FFmpegBinary, cfg.Audio.TempDir, logger)

	recognizer := speech.NewClient(speech.Config{
		Region:      cfg.Speech.Region,
		Key:         cfg.Speech.Key,
		Language:    cfg.Speech.Language,
		Endpoint:    cfg.Speech.Endpoint,
		UseIdentity: cfg.Speech.UseIdentity,
	}, logger)

	analyzer := contentsafety.NewClient(contentsafety.Config{
		Endpoint:   cfg.ContentSafety.Endpoint,
		Key:        cfg.ContentSafety.Key,
		APIVersion: cfg.ContentSafety.APIVersion,
	}, logger)

	var index search.Index = search.NewClient(search.Config{
		Endpoint:   cfg.Search.Endpoint,
		Key:        cfg.Search.Key,
		Index:      cfg.Search.Index,
		APIVersion: cfg.Search.APIVersion,
	}, logger)

	// The regulation index is small and changes rarely; cache lookups in
	// redis when a host is configured.
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
		index = infraCache.NewRegulationCache(index, redisClient, ttl, logger)
	}

	providerLocator := factory.NewProviderLocator()
	llm, err := providerLocator.Get(cfg.LLM.Provider)
	if err != nil {
		logger.Fatalf("Failed to initialize llm provider: %v", err)
	}

	credentials := providers.Credentials{ApiKey: cfg.LLM.APIKey}
	if cfg.LLM.Provider == factory.ProviderAzure {
		credentials.Azure = &providers.AzureCredentials{
			Endpoint:    cfg.LLM.Azure.Endpoint,
			ApiVersion:  cfg.LLM.Azure.APIVersion,
			UseIdentity: cfg.LLM.Azure.UseIdentity,
		}
	}

	classifyConfig := &providers.Config{
		Credentials:  credentials,
		Model:        cfg.LLM.ClassificationModel,
		MaxTokens:    cfg.LLM.MaxTokens,
		SystemPrompt: pipeline.ClassifySystemPrompt,
	}
	guidanceConfig := &providers.Config{
		Credentials:  credentials,
		Model:        cfg.LLM.GuidanceModel,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		SystemPrompt: pipeline.GuidanceSystemPrompt,
	}

	processor := pipeline.New(pipeline.Deps{
		Normalizer:     normalizer,
		Recognizer:     recognizer,
		Analyzer:       analyzer,
		Index:          index,
		LLM:            llm,
		ClassifyConfig: classifyConfig,
		GuidanceConfig: guidanceConfig,
		Thresholds:     cfg.Safety.DecisionThresholds(),
		Logger:         logger,
	})

	handlerTransport := handlers.HandlerTransport{
		AnalyzeCallHandler: handlers.NewAnalyzeCallHandler(handlers.AnalyzeCallHandlerDeps{
			Logger:    logger,
			Processor: processor,
		}),
		GetVersionHandler: handlers.NewGetVersionHandler(),
	}

	srv := server.NewAPIServer(server.APIServerDI{
		HandlerTransport: handlerTransport,
		Config:           cfg,
		Logger:           logger,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	fmt.Println("shutting down server...")
	if err := srv.Shutdown(); err != nil {
		fmt.Println("error shutting down server:", err)
		os.Exit(1)
	}
	fmt.Println("server gracefully stopped")
}
