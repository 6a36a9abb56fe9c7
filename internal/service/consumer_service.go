package service

import (
	"context"
	"encoding/json"
	"time"

	"tarot-oracle-be/internal/dto"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/repository/unitofwork"
	"tarot-oracle-be/pkg/events"
	oraclememory "tarot-oracle-be/pkg/oracle/memory"

	"github.com/ThreeDotsLabs/watermill/message"
)

const memoryJobTimeout = 60 * time.Second

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains memory extraction jobs queued by the oracle flow.
type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	extractor      *oraclememory.Extractor
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	extractor *oraclememory.Extractor,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) IConsumerService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		extractor:      extractor,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: extraction failures are logged and a retry
// would only repeat the same model call.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var job dto.MemoryExtractionJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("MemoryConsumer", "Failed to unmarshal memory job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, memoryJobTimeout)
	defer cancel()

	saved := cs.extractor.ExtractAndStore(jobCtx, job.UserId, job.ConversationId, job.Question, job.Interpretation)
	if saved == 0 {
		return
	}

	if err := cs.eventPublisher.Publish(jobCtx, events.NewMemoryExtracted(job.ConversationId, job.UserId, saved)); err != nil {
		cs.logger.Warn("MemoryConsumer", "Failed to publish memory event", map[string]interface{}{
			"conversation_id": job.ConversationId,
			"error":           err.Error(),
		})
	}
}

// memoryStore adapts the oracle repository to the extractor's Store.
type memoryStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMemoryStore(uowFactory unitofwork.RepositoryFactory) oraclememory.Store {
	return &memoryStore{uowFactory: uowFactory}
}

func (m *memoryStore) SaveMemoryEntry(ctx context.Context, userID, conversationID string, entry oraclememory.Entry) error {
	return m.uowFactory.NewUnitOfWork(ctx).OracleRepository().SaveMemoryEntry(ctx, userID, conversationID, entry)
}
