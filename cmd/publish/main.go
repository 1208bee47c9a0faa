package main

import (
	"context"
	"encoding/json"
	"flag"
	"time"

	"go-mediaflow/internal/config"
	"go-mediaflow/internal/kafka"
	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publishes one metadata-update application event onto the inbound
// topic, the same shape an album frontend would send.
func main() {
	id := flag.String("id", "", "file name of the asset record to update")
	attribute := flag.String("attr", "", "attribute name, e.g. Caption")
	value := flag.String("value", "", "attribute value")
	flag.Parse()

	cfg := config.Load()
	observability.InitLogger(cfg.Logging.Level)
	logger := observability.GetLogger()

	if *id == "" || *attribute == "" || *value == "" {
		logger.Fatal("All of -id, -attr, and -value are required")
	}

	body, err := json.Marshal(struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	}{ID: *id, Value: *value})
	if err != nil {
		logger.WithError(err).Fatal("Failed to marshal update")
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Acks:    -1,
		Retries: 3,
	})
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	headers := map[string]string{models.HeaderMetadataType: *attribute}
	if err := producer.Publish(ctx, cfg.Topics.Inbound, uuid.NewString(), body, headers); err != nil {
		logger.WithError(err).Fatal("Failed to publish update")
	}
	logger.WithFields(logrus.Fields{
		"id":        *id,
		"attribute": *attribute,
	}).Info("Metadata update published")
}
