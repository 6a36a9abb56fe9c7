package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tarot-oracle-be/internal/dto"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/pkg/events"
	"tarot-oracle-be/pkg/llm/llmtest"
	oraclememory "tarot-oracle-be/pkg/oracle/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const memoryTopic = "memory-extraction"

func TestConsumer_ExtractsAndStores(t *testing.T) {
	store := newFakeStore()
	publisher := &recordingPublisher{}
	llm := llmtest.New(`{"entries":[
		{"category":"relationship","key":"pareja","value":"Su pareja se llama Laura","layer":"identity"},
		{"category":"preference","key":"correo","value":"laura@example.com"}
	]}`)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		require.NoError(t, pubSub.Close())
	}()

	extractor := oraclememory.NewExtractor(llm, NewMemoryStore(store), logger.NewNopLogger())
	consumer := NewConsumerService(pubSub, memoryTopic, extractor, publisher, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	queue := NewPublisherService(memoryTopic, pubSub)
	payload, err := json.Marshal(dto.MemoryExtractionJob{
		UserId:         premiumUser,
		ConversationId: "c-1",
		Question:       "Mi pareja Laura y yo discutimos mucho",
		Interpretation: "## Saludo\nHola",
	})
	require.NoError(t, err)
	require.NoError(t, queue.Publish(context.Background(), payload))

	require.Eventually(t, func() bool { return len(store.entries()) == 1 }, 2*time.Second, 10*time.Millisecond)

	saved := store.entries()[0]
	assert.Equal(t, premiumUser, saved.UserID)
	assert.Equal(t, "c-1", saved.ConversationID)
	assert.Equal(t, oraclememory.Relationship, saved.Entry.Category)
	assert.Nil(t, saved.Entry.TTLDays, "identity entries are permanent")

	assert.Eventually(t, func() bool {
		types := publisher.Types()
		return len(types) == 1 && types[0] == events.TypeMemoryExtracted
	}, time.Second, 10*time.Millisecond)
}

func TestConsumer_SkipsMalformedAndAnonymousJobs(t *testing.T) {
	store := newFakeStore()
	llm := llmtest.New()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		require.NoError(t, pubSub.Close())
	}()

	extractor := oraclememory.NewExtractor(llm, NewMemoryStore(store), logger.NewNopLogger())
	consumer := NewConsumerService(pubSub, memoryTopic, extractor, nil, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	queue := NewPublisherService(memoryTopic, pubSub)
	require.NoError(t, queue.Publish(ctx, []byte("not json")))

	anonymous, err := json.Marshal(dto.MemoryExtractionJob{UserId: "anonymous", ConversationId: "c-2", Question: "hola"})
	require.NoError(t, err)
	require.NoError(t, queue.Publish(ctx, anonymous))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, llm.CallCount())
	assert.Empty(t, store.entries())
}
