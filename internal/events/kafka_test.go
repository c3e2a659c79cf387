package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/config"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	brokers := config.CSV(os.Getenv("STOREFRONT_TEST_KAFKA_BROKERS"))
	if len(brokers) == 0 {
		t.Skip("STOREFRONT_TEST_KAFKA_BROKERS not set")
	}

	p := NewKafkaPublisher(brokers)
	defer p.Close()

	env, err := NewEnvelope(ProductCreated, ProductPayload{ProductID: "p1", Name: "widget"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, TopicProduct, "p1", env))
}
