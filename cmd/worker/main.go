package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go-mediaflow/internal/config"
	"go-mediaflow/internal/kafka"
	"go-mediaflow/internal/notify"
	"go-mediaflow/internal/observability"
	"go-mediaflow/internal/service"
	"go-mediaflow/internal/store"
)

func main() {
	role := flag.String("service", "", "consumer role: ingest, notify, metadata, or rejection")
	flag.Parse()

	cfg := config.Load()
	observability.InitLogger(cfg.Logging.Level)
	logger := observability.GetLogger()

	if err := cfg.Validate(*role); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probe := kafka.NewBrokerProbe(cfg.Kafka.Brokers, 5)
	if err := probe.WaitForBrokers(ctx); err != nil {
		logger.WithError(err).Fatal("Kafka brokers unreachable")
	}

	metrics := observability.NewInMemoryMetrics()
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Acks:    -1,
		Retries: 3,
		Metrics: metrics,
	})
	defer producer.Close()

	consumerCfg := kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        "media-" + *role,
		BatchSize:      cfg.Consumer.BatchSize,
		BatchWindow:    cfg.Consumer.BatchWindow,
		HandlerTimeout: cfg.Consumer.HandlerTimeout,
		RetryMax:       cfg.Consumer.RetryMax,
		FetchMinBytes:  cfg.Consumer.FetchMinBytes,
		FetchMaxBytes:  cfg.Consumer.FetchMaxBytes,
		Metrics:        metrics,
	}

	var handler kafka.BatchHandler
	switch *role {
	case "ingest":
		assets := store.NewRedisAssetStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Table)
		defer assets.Close()
		consumerCfg.Topic = cfg.Topics.Ingest
		consumerCfg.RetryTopicPrefix = cfg.Topics.IngestRetryPrefix
		consumerCfg.DLQTopic = cfg.Topics.IngestDLQ
		consumerCfg.DedupeStore = store.NewRedisDedupeStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.DedupeTTL)
		handler = service.NewIngestService(assets, metrics).HandleBatch

	case "metadata":
		assets := store.NewRedisAssetStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Table)
		defer assets.Close()
		consumerCfg.Topic = cfg.Topics.Metadata
		consumerCfg.RetryTopicPrefix = cfg.Topics.MetadataRetryPrefix
		consumerCfg.DLQTopic = cfg.Topics.MetadataDLQ
		handler = service.NewMetadataService(assets, metrics).HandleBatch

	case "notify":
		mailer, err := notify.NewSESMailer(cfg.Email.Region, cfg.Email.From, cfg.Email.To)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create mailer")
		}
		consumerCfg.Topic = cfg.Topics.Notify
		consumerCfg.RetryTopicPrefix = cfg.Topics.NotifyRetryPrefix
		handler = service.NewNotifyService(mailer, metrics).HandleBatch

	case "rejection":
		mailer, err := notify.NewSESMailer(cfg.Email.Region, cfg.Email.From, cfg.Email.To)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create mailer")
		}
		consumerCfg.Topic = cfg.Topics.IngestDLQ
		handler = service.NewRejectionService(mailer, metrics).HandleBatch

	default:
		logger.WithField("service", *role).Fatal("Unknown service, expected ingest, notify, metadata, or rejection")
	}

	consumer := kafka.NewConsumer(consumerCfg, producer)
	defer consumer.Close()

	logger.WithField("service", *role).Info("Worker started")
	if err := consumer.Start(ctx, handler); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("Consumer stopped with error")
		os.Exit(1)
	}
	logger.WithField("service", *role).Info("Worker shut down")
}
