package kafka

import (
	"context"
	"fmt"
	"math"
	"time"

	"go-mediaflow/internal/observability"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// BrokerProbe gates startup on broker reachability. A worker whose
// brokers are down should fail fast or wait, not start consuming and
// surface connection errors per record.
type BrokerProbe struct {
	brokers     []string
	logger      *logrus.Logger
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewBrokerProbe(brokers []string, maxAttempts int) *BrokerProbe {
	return &BrokerProbe{
		brokers:     brokers,
		logger:      observability.GetLogger(),
		maxAttempts: maxAttempts,
		baseBackoff: time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// Check dials the first broker and reads partition metadata once.
func (p *BrokerProbe) Check(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("dialing broker %s: %w", p.brokers[0], err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("reading partition metadata: %w", err)
	}
	return nil
}

// WaitForBrokers retries Check with exponential backoff until the
// brokers answer, the attempt budget is spent, or ctx is canceled.
func (p *BrokerProbe) WaitForBrokers(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Min(
				float64(p.baseBackoff)*math.Pow(2, float64(attempt-1)),
				float64(p.maxBackoff),
			))
			p.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoff,
			}).Info("Brokers not reachable yet, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = p.Check(ctx); lastErr == nil {
			return nil
		}
		p.logger.WithError(lastErr).Warn("Broker check failed")
	}
	return fmt.Errorf("brokers unreachable after %d attempts: %w", p.maxAttempts, lastErr)
}
