package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finwatch/networth-pipeline/internal/api"
	"github.com/finwatch/networth-pipeline/internal/config"
	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/events"
	"github.com/finwatch/networth-pipeline/internal/notify"
	"github.com/finwatch/networth-pipeline/internal/producer"
	"github.com/finwatch/networth-pipeline/internal/queue"
	"github.com/finwatch/networth-pipeline/internal/quotes"
	"github.com/finwatch/networth-pipeline/internal/valuation"
	"github.com/finwatch/networth-pipeline/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	store, err := docstore.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to document store at %s:%s", cfg.Database.Host, cfg.Database.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
	}
	log.Printf("Connected to Redis at %s", cfg.Redis.Addr)

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		log.Printf("Publishing pipeline events to %s", cfg.Kafka.Topic)
	}

	quoteService := quotes.NewService(
		quotes.NewStockClient(cfg.Providers.StockBaseURL, cfg.Providers.StockToken),
		quotes.NewCryptoClient(cfg.Providers.CryptoBaseURL, cfg.Providers.CryptoAPIKey),
		cfg.Providers.QuoteTimeout,
	)
	aggregator := valuation.NewAggregator(store, quoteService)

	q := queue.New(rdb)
	if publisher != nil {
		q.OnJobFailed = func(job queue.Job, err error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if perr := publisher.PublishJobFailed(ctx, job.Name, job.ID, err.Error()); perr != nil {
				log.Printf("Failed to publish job-failed event: %v", perr)
			}
		}
	}

	// TODO: wire real email/SMS providers once credentials are provisioned
	var emailSender notify.EmailSender = notify.LogEmailSender{}
	var smsSender notify.SMSSender = notify.LogSMSSender{}

	var sink worker.EventSink
	if publisher != nil {
		sink = publisher
	}
	w := worker.New(store, quoteService, aggregator, emailSender, smsSender, sink, cfg.Pipeline.NotifyTimeout)
	w.Register(q)

	prod, err := producer.New(store, q, cfg.Pipeline.BatchSize)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		if err := q.Start(ctx); err != nil {
			log.Printf("Queue stopped with error: %v", err)
		}
	}()

	// In-process schedule as a convenience; the HTTP trigger endpoints serve
	// external cron setups.
	scheduler := cron.New(cron.WithLocation(time.UTC))
	scheduler.AddFunc("0 6 * * *", func() {
		if _, err := prod.TriggerDailyValuations(ctx); err != nil {
			log.Printf("Daily valuation trigger failed: %v", err)
		}
	})
	scheduler.AddFunc("@every 15m", func() {
		if _, err := prod.TriggerPriceAlertScan(ctx); err != nil {
			log.Printf("Price alert trigger failed: %v", err)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	router := api.SetupRoutes(api.NewHandler(prod))
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	<-queueDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Worker exited")
}
