package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/command"
	"github.com/alexp-buildit/WireSafe-Portal/internal/config"
	"github.com/alexp-buildit/WireSafe-Portal/internal/events"
	"github.com/alexp-buildit/WireSafe-Portal/internal/handler"
	"github.com/alexp-buildit/WireSafe-Portal/internal/logging"
	"github.com/alexp-buildit/WireSafe-Portal/internal/metrics"
	"github.com/alexp-buildit/WireSafe-Portal/internal/query"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	wsredis "github.com/alexp-buildit/WireSafe-Portal/internal/redis"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

func main() {
	envFile := flag.String("env-file", "", "optional env file to load before reading configuration")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	redisClient, err := wsredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	encryptor, err := secure.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("failed to build encryptor", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("wiresafe", registry)

	// Repositories
	users := repository.NewUserRepository(db)
	transactionWrites := repository.NewTransactionWriteRepository(db)
	transactionReads := repository.NewTransactionReadRepository(db, redisClient.Client, logger)
	participants := repository.NewParticipantRepository(db)
	banking := repository.NewBankingRepository(db)
	audit := repository.NewAuditRepository(db)
	notifications := repository.NewNotificationRepository(db)
	workflowStore := repository.NewWorkflowStore(db)

	// Events
	publisher := events.NewPublisher(redisClient.Client, logger)
	notifier := events.NewNotifier(notifications, logger)

	// Services
	jwtSecret := []byte(cfg.JWTSecret)
	engine := workflow.NewEngine(workflowStore)

	userCommands := command.NewUserCommandService(users, audit, jwtSecret)
	transactionCommands := command.NewTransactionCommandService(
		transactionWrites, transactionReads, participants, users, audit, publisher, collector, logger)
	bankingCommands := command.NewBankingCommandService(
		banking, transactionWrites, transactionReads, audit, publisher, encryptor, collector, logger)
	verificationCommands := command.NewVerificationCommandService(
		engine, transactionWrites, transactionReads, audit, publisher, collector, logger)
	notificationCommands := command.NewNotificationCommandService(notifications, audit, logger)

	authQueries := query.NewAuthQueryService(users, audit, jwtSecret)
	transactionQueries := query.NewTransactionQueryService(transactionReads, transactionWrites, audit, logger)
	bankingQueries := query.NewBankingQueryService(banking, transactionWrites, audit, encryptor, logger)
	auditQueries := query.NewAuditQueryService(audit, transactionWrites, users, logger)
	notificationQueries := query.NewNotificationQueryService(notifications, audit, logger)

	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(userCommands, authQueries, logger),
		Transaction:  handler.NewTransactionHandler(transactionCommands, transactionQueries, logger),
		Banking:      handler.NewBankingHandler(bankingCommands, bankingQueries, logger),
		Verification: handler.NewVerificationHandler(verificationCommands, logger),
		Audit:        handler.NewAuditHandler(auditQueries, logger),
		Notification: handler.NewNotificationHandler(notificationCommands, notificationQueries, logger),
	}, jwtSecret, collector, registry, logger)

	// Stream subscribers turn domain events into notifications.
	subscriberCtx, stopSubscribers := context.WithCancel(context.Background())
	defer stopSubscribers()
	hostname, _ := os.Hostname()
	for _, stream := range []string{events.TransactionEventsStream, events.BankingEventsStream} {
		sub := events.NewSubscriber(redisClient.Client, events.SubscriberConfig{
			Group:    "notifier",
			Consumer: hostname,
			Stream:   stream,
			Handler:  notifier.Handle,
		}, logger)
		go func() {
			if err := sub.Start(subscriberCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("subscriber stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopSubscribers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
