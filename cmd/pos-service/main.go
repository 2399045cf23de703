package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
	"github.com/vasiliy-maslov/restaurant-pos/internal/config"
	"github.com/vasiliy-maslov/restaurant-pos/internal/customer"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	posHTTP "github.com/vasiliy-maslov/restaurant-pos/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogger(cfg.App)
	log.Info().Str("env", cfg.App.Env).Msg("POS service starting...")

	ctx := context.Background()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if cfg.Postgres.MigrateOnStart {
		if err := pg.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	reportingDB, err := db.ConnectReporting(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open reporting connection")
	}
	defer reportingDB.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
	}

	publisher, closePublishers := newPublisher(cfg)
	defer closePublishers()

	menuSvc := menu.NewService(menu.NewRepository(pg.Pool), menu.NewRedisCache(redisClient, cfg.Redis.MenuCacheTTL))
	tableSvc := table.NewService(table.NewRepository(pg.Pool))
	customerSvc := customer.NewService(customer.NewRepository(pg.Pool))
	staffSvc := staff.NewService(staff.NewRepository(pg.Pool))
	inventorySvc := inventory.NewService(inventory.NewRepository(pg.Pool))
	receiptSvc := receipt.NewService(receipt.NewRepository(pg.Pool), receipt.DefaultQRGenerator{BaseURL: cfg.POS.ReceiptBaseURL})
	reportSvc := report.NewService(report.NewRepository(reportingDB), time.Local)
	sessions := auth.NewRedisSessionService(redisClient, staffSvc, cfg.Redis.SessionTTL)

	orderSvc := order.NewService(order.NewRepository(pg.Pool), menuSvc, publisher, order.Config{
		TaxRate:              decimal.NewFromFloat(cfg.POS.TaxRate),
		LoyaltyPointsPerUnit: cfg.POS.LoyaltyPointsPerUnit,
	})

	router := posHTTP.NewRouter(posHTTP.Services{
		Auth:      sessions,
		Orders:    orderSvc,
		Tables:    tableSvc,
		Menu:      menuSvc,
		Customers: customerSvc,
		Staff:     staffSvc,
		Inventory: inventorySvc,
		Receipts:  receiptSvc,
		Reports:   reportSvc,
		Health: func(ctx context.Context) error {
			return errors.Join(pg.Pool.Ping(ctx), redisClient.Ping(ctx).Err())
		},
	}, cfg.POS.CORSOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", app.Name).Logger()
}

// newPublisher wires the Kafka order-events stream and the RabbitMQ kitchen
// feed. Either is skipped when it is not configured.
func newPublisher(cfg *config.Config) (events.Publisher, func()) {
	var (
		publishers events.Multi
		closers    []func()
	)

	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, events.NewKafkaPublisher(writer))
		closers = append(closers, func() {
			if err := writer.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Kafka writer")
			}
		})
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka order events enabled")
	}

	if cfg.RabbitMQ.URL != "" {
		broker, err := events.DialKitchen(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		publishers = append(publishers, events.NewKitchenPublisher(broker.Channel(), cfg.RabbitMQ.Exchange))
		closers = append(closers, broker.Close)
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Kitchen feed enabled")
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(publishers) == 0 {
		log.Warn().Msg("No event brokers configured; order events are discarded")
		return events.Nop{}, closeAll
	}
	return publishers, closeAll
}
