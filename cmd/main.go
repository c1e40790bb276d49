package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"torquebackend/internal/api"
	"torquebackend/internal/auth"
	"torquebackend/internal/chat"
	"torquebackend/internal/chat/models"
	"torquebackend/internal/llm"
	"torquebackend/internal/middleware"
	"torquebackend/internal/usage"
	"torquebackend/internal/vin"
	"torquebackend/pkg/config"
	"torquebackend/pkg/db"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logrus.Fatalf("Ошибка при подключении к базе данных: %v", err)
	}
	defer database.Close()

	ceilings := map[models.Tier]int{
		models.TierFree:	cfg.FreeTokenBudget,
		models.TierPro:		cfg.ProTokenBudget,
	}
	replyTokens := map[models.Tier]int{
		models.TierFree:	cfg.FreeReplyTokens,
		models.TierPro:		cfg.ProReplyTokens,
	}

	llmService := llm.NewService(cfg)
	assembler := chat.NewAssembler(llmService, cfg.MaxHistoryTurns, ceilings, replyTokens)
	vinService := vin.NewService(llmService, ceilings)

	usageRepo := usage.NewRepository(database)
	usageService := usage.NewService(usageRepo)

	apiHandler := api.NewHandler(
		assembler,
		vinService,
		usageService,
		cfg.JWTSigningKey,
		cfg.AppSecretHash,
		cfg.DeviceTokenTTL,
		cfg.RequestTimeout,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", apiHandler.HealthHandler)

	registerHandler := http.HandlerFunc(apiHandler.RegisterDeviceHandler)
	mux.Handle("/api/device/register", middleware.CORSMiddleware(middleware.LoggingMiddleware(registerHandler)))

	chatHandler := http.HandlerFunc(apiHandler.ChatHandler)
	mux.Handle("/api/chat", middleware.CORSMiddleware(middleware.LoggingMiddleware(auth.JWTMiddleware(chatHandler, cfg.JWTSigningKey))))

	vinHandler := http.HandlerFunc(apiHandler.VINDecodeHandler)
	mux.Handle("/api/vin/decode", middleware.CORSMiddleware(middleware.LoggingMiddleware(auth.JWTMiddleware(vinHandler, cfg.JWTSigningKey))))

	usageHandler := http.HandlerFunc(apiHandler.UsageHandler)
	mux.Handle("/api/usage/me", middleware.CORSMiddleware(middleware.LoggingMiddleware(auth.JWTMiddleware(usageHandler, cfg.JWTSigningKey))))

	server := &http.Server{
		Addr:		cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:	mux,
	}

	go func() {
		logrus.Infof("Сервер запущен на порту %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Ошибка при запуске сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Завершение работы сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Ошибка при остановке сервера: %v", err)
	}

	logrus.Info("Сервер остановлен")
}
