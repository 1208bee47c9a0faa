package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-mediaflow/internal/config"
	"go-mediaflow/internal/gateway"
	"go-mediaflow/internal/kafka"
	"go-mediaflow/internal/objectstore"
	"go-mediaflow/internal/observability"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.Logging.Level)
	logger := observability.GetLogger()

	if err := cfg.Validate("gateway"); err != nil {
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

	listener, err := objectstore.NewBucketListener(
		cfg.ObjectStore.Endpoint,
		cfg.ObjectStore.AccessKey,
		cfg.ObjectStore.SecretKey,
		cfg.ObjectStore.UseSSL,
		cfg.ObjectStore.Bucket,
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create bucket listener")
	}

	// Bridge: bucket notifications become records on the inbound topic.
	bridgeDone := make(chan struct{})
	go func() {
		defer close(bridgeDone)
		for body := range listener.Events(ctx) {
			if err := producer.Publish(ctx, cfg.Topics.Inbound, "", body, nil); err != nil {
				logger.WithError(err).Error("Failed to publish bucket notification")
			}
		}
	}()

	router := gateway.NewRouter(producer,
		cfg.Topics.Ingest, cfg.Topics.Notify, cfg.Topics.Metadata, metrics)

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Topics.Inbound,
		GroupID:          "media-gateway",
		BatchSize:        cfg.Consumer.BatchSize,
		BatchWindow:      cfg.Consumer.BatchWindow,
		HandlerTimeout:   cfg.Consumer.HandlerTimeout,
		RetryMax:         cfg.Consumer.RetryMax,
		FetchMinBytes:    cfg.Consumer.FetchMinBytes,
		FetchMaxBytes:    cfg.Consumer.FetchMaxBytes,
		RetryTopicPrefix: cfg.Topics.InboundRetryPrefix,
		DLQTopic:         cfg.Topics.InboundDLQ,
		Metrics:          metrics,
	}, producer)
	defer consumer.Close()

	logger.WithField("topic", cfg.Topics.Inbound).Info("Gateway started")
	if err := consumer.Start(ctx, router.HandleBatch); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("Consumer stopped with error")
		os.Exit(1)
	}

	// The bridge loop ends once the notification stream closes; wait
	// for it so its last publish lands before the producer closes.
	<-bridgeDone
	logger.Info("Gateway shut down")
}
