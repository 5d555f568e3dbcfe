//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"casbinder/internal/platform/kafka"
	"casbinder/pkg/testutil/containers"
)

func TestKafkaPublisherAgainstRedpanda(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	const topic = "casbinder.authenticated.it"
	producer, err := kafka.NewProducer([]string{rp.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.EnsureTopic(ctx, topic, 1, 1))

	event := testEvent(t)
	require.NoError(t, NewKafkaPublisher(producer, topic).OnAuthenticated(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)

	var msg Message
	require.NoError(t, json.Unmarshal(records[0].Value, &msg))
	require.Equal(t, event.Account.ID.String(), string(records[0].Key))
	require.Equal(t, "alice", msg.Username)
}
