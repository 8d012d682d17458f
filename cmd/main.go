package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/adapter/postgres"
	"github.com/azamat-kh/restostock/internal/adapter/rabbitmq"
	"github.com/azamat-kh/restostock/internal/app/inventory"
	"github.com/azamat-kh/restostock/internal/app/kitchen"
	"github.com/azamat-kh/restostock/internal/app/order"
	"github.com/azamat-kh/restostock/internal/app/tracking"
	"github.com/azamat-kh/restostock/internal/config"

	amqpAdapter "github.com/azamat-kh/restostock/internal/adapter/amqp"
	httpAdapter "github.com/azamat-kh/restostock/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-service, kitchen-worker, tracking-service, notification-subscriber")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	workerName := flag.String("worker-name", "", "Worker name (for kitchen-worker)")
	heartbeatInterval := flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	lgr := logger.New(*mode, logger.ParseLevel(cfg.Logging.Level))

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "order-service":
		runOrderService(db, mqConn, lgr, *port)

	case "kitchen-worker":
		if *workerName == "" {
			log.Fatal("--worker-name is required for kitchen-worker mode")
		}
		runKitchenWorker(ctx, db, mqConn, lgr, cfg, *workerName, *heartbeatInterval, *prefetch)

	case "tracking-service":
		runTrackingService(db, lgr, *port)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runOrderService(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, port int) {
	orderRepo := postgres.NewOrderRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	publisher := rabbitmq.NewPublisher(mqConn)

	orderService := order.NewService(orderRepo, catalogRepo, publisher, lgr)
	inventoryService := inventory.NewService(catalogRepo, lgr)

	orderHandler := httpAdapter.NewOrderHandler(orderService, lgr)
	inventoryHandler := httpAdapter.NewInventoryHandler(inventoryService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", orderHandler.HandleOrders)
	mux.HandleFunc("/orders/", orderHandler.HandleOrders)
	mux.HandleFunc("/ingredients/", inventoryHandler.HandleIngredients)

	runHTTPServer(mux, lgr, port, "Order Service")
}

func runKitchenWorker(ctx context.Context, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config, workerName string, heartbeatInterval, prefetch int) {
	orderRepo := postgres.NewOrderRepository(db)
	workerRepo := postgres.NewWorkerRepository(db)

	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)

	kitchenService := kitchen.NewService(orderRepo, workerRepo, publisher, lgr,
		workerName, cfg.Kitchen.PrepSecondsPerUnit, heartbeatInterval)

	orderHandlerAMQP := amqpAdapter.NewOrderHandler(kitchenService, lgr)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := kitchenService.Start(workerCtx); err != nil {
		log.Fatalf("Failed to start kitchen worker: %v", err)
	}

	lgr.Info("service_started", fmt.Sprintf("Kitchen Worker %s started", workerName), "startup", map[string]interface{}{
		"worker_name": workerName,
		"prefetch":    prefetch,
	})

	go func() {
		if err := consumer.ConsumeConfirmedOrders(workerCtx, orderHandlerAMQP.HandleOrder); err != nil {
			lgr.Error("consumer_error", "Error consuming confirmed orders", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("graceful_shutdown", "Shutting down Kitchen Worker", "shutdown", nil)
	cancel()

	if err := kitchenService.Shutdown(context.Background()); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
	}
}

func runTrackingService(db postgres.DB, lgr logger.Logger, port int) {
	orderRepo := postgres.NewOrderRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	workerRepo := postgres.NewWorkerRepository(db)

	trackingService := tracking.NewService(orderRepo, catalogRepo, workerRepo, lgr)

	trackingHandler := httpAdapter.NewTrackingHandler(trackingService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders/", trackingHandler.HandleOrders)
	mux.HandleFunc("/dishes/", trackingHandler.HandleDishes)
	mux.HandleFunc("/workers/status", trackingHandler.GetWorkersStatus)

	runHTTPServer(mux, lgr, port, "Tracking Service")
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeNotifications(subCtx, notificationHandler.HandleNotification); err != nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}

func runHTTPServer(mux *http.ServeMux, lgr logger.Logger, port int, name string) {
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), "startup", map[string]interface{}{
		"port": port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}
