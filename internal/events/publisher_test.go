package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForBrokersWithoutBrokersIsNop(t *testing.T) {
	publisher := ForBrokers(nil)
	require.IsType(t, NopPublisher{}, publisher)

	require.NoError(t, publisher.PublishScoreUpserted(context.Background(), ScoreUpserted{RunID: "r1"}))
	require.NoError(t, publisher.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1"}))
	require.NoError(t, publisher.Close())
}

func TestForBrokersWithBrokersIsKafka(t *testing.T) {
	publisher := ForBrokers([]string{"localhost:9092"})
	require.IsType(t, &KafkaPublisher{}, publisher)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherSkipsEmptyBatch(t *testing.T) {
	publisher := NewKafkaPublisher([]string{"localhost:9092"})
	defer publisher.Close()

	// An empty batch never opens a writer, so no broker connection is made.
	require.NoError(t, publisher.PublishScoreUpserted(context.Background()))
}
