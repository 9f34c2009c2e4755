package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consultant-match-go/internal/api/handler"
	"consultant-match-go/internal/api/router"
	"consultant-match-go/internal/chat"
	"consultant-match-go/internal/config"
	"consultant-match-go/internal/consultant"
	"consultant-match-go/internal/embedding"
	"consultant-match-go/internal/llm"
	applogger "consultant-match-go/internal/logger"
	"consultant-match-go/internal/matching"
	"consultant-match-go/internal/overview"
	"consultant-match-go/internal/storage"
	"consultant-match-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	applogger.Init(cfg.Logger)
	glog.SetLogger(hertzadapter.From(applogger.Logger))
	glog.Info("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("init tracer provider: %v", err)
	}
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				glog.Warnf("shutdown tracer provider: %v", err)
			}
		}()
		glog.Info("tracing initialized")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("init storage: %v", err)
	}
	defer storageManager.Close()
	glog.Info("storage initialized")

	embedder, err := embedding.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("init embedder: %v", err)
	}
	glog.Info("embedder initialized")

	chatModel, err := llm.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("init chat model: %v", err)
	}
	glog.Info("chat model initialized")

	var extractorLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		extractorLogger = log.New(os.Stderr, "[RoleExtractor] ", log.LstdFlags|log.Lshortfile)
	} else {
		extractorLogger = log.New(io.Discard, "", 0)
	}

	extractor := chat.NewLLMRoleExtractor(chatModel, extractorLogger)
	conversation := chat.NewConversation(extractor, cfg.Matching.CollaboratorTimeout())

	matchOpts := []matching.ServiceOption{}
	if storageManager.Redis != nil {
		matchOpts = append(matchOpts, matching.WithVectorCache(storageManager.Redis))
	}
	if storageManager.MinIO != nil {
		matchOpts = append(matchOpts, matching.WithResumeChecker(storageManager.MinIO))
	}
	matchService := matching.NewService(embedder, storageManager.Qdrant, embedder.ModelVersion(), cfg.Matching, matchOpts...)

	var resumeStore consultant.ResumeStore
	if storageManager.MinIO != nil {
		resumeStore = storageManager.MinIO
	}
	consultantService := consultant.NewService(storageManager.Qdrant, embedder, resumeStore, cfg.Matching)

	aggregator := overview.NewAggregator(storageManager.Qdrant, cfg.Matching)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h,
		handler.NewChatHandler(conversation),
		handler.NewMatchHandler(matchService),
		handler.NewConsultantHandler(consultantService),
		handler.NewOverviewHandler(aggregator),
	)
	glog.Info("routes registered")

	go func() {
		glog.Infof("HTTP server listening on %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("run HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("termination signal received, shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("shutdown HTTP server: %v", err)
	}
	glog.Info("shutdown complete")
}
