package service

import (
	"context"
	"fmt"
	"time"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/dto"
	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/pkg/serverutils"
	"tarot-oracle-be/internal/repository/memory"
	"tarot-oracle-be/internal/repository/specification"
	"tarot-oracle-be/internal/repository/unitofwork"
	"tarot-oracle-be/pkg/events"
	"tarot-oracle-be/pkg/oracle/section"
	"tarot-oracle-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	TransferSourceCache  = "server-cache"
	TransferSourceClient = "client"

	transferTitleRunes = 50
)

// ITransferService moves anonymous conversations to an identified user and
// reveals stored readings once the user is entitled to them.
type ITransferService interface {
	Transfer(ctx context.Context, request *dto.TransferRequest) (*dto.TransferResponse, error)
	FullSections(ctx context.Context, conversationId, messageId, userId string) (*dto.FullSectionsResponse, error)
}

type transferService struct {
	uowFactory     unitofwork.RepositoryFactory
	anonymousCache *memory.AnonymousCache
	permissions    *permissionResolver
	eventPublisher events.Publisher
	logger         logger.ILogger
	now            func() time.Time
}

func NewTransferService(
	uowFactory unitofwork.RepositoryFactory,
	anonymousCache *memory.AnonymousCache,
	permissionCache *memory.PermissionCache,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) ITransferService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &transferService{
		uowFactory:     uowFactory,
		anonymousCache: anonymousCache,
		permissions:    newPermissionResolver(uowFactory, permissionCache, logger),
		eventPublisher: eventPublisher,
		logger:         logger,
		now:            time.Now,
	}
}

// Transfer prefers the server's cached, unfiltered messages over the ones
// the client sends. An existing chat only changes owner.
func (s *transferService) Transfer(ctx context.Context, request *dto.TransferRequest) (*dto.TransferResponse, error) {
	newUserId, err := uuid.Parse(request.NewUserId)
	if err != nil {
		return nil, &serverutils.ValidationError{Fields: map[string]string{"newUserId": "must be a valid uuid"}}
	}

	messages, source := s.selectMessages(request)

	s.logger.Info("TransferService", "Transferring chat", map[string]interface{}{
		"conversation_id": request.ConversationId,
		"new_user_id":     request.NewUserId,
		"messages":        len(messages),
		"source":          source,
	})

	resp, err := s.persist(ctx, request, newUserId, messages, source)
	if err != nil && source == TransferSourceCache {
		// The drained reading stays claimable for a retry.
		s.anonymousCache.Restore(request.ConversationId, messages)
	}
	return resp, err
}

func (s *transferService) persist(
	ctx context.Context,
	request *dto.TransferRequest,
	newUserId uuid.UUID,
	messages []entity.CachedMessage,
	source string,
) (*dto.TransferResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatId, parseErr := uuid.Parse(request.ConversationId)
	var existing *entity.Chat
	if parseErr == nil {
		var err error
		existing, err = uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
		if err != nil {
			return nil, err
		}
	} else {
		chatId = uuid.New()
	}

	if existing != nil {
		if err := s.reassign(ctx, uow, chatId, newUserId); err != nil {
			return nil, err
		}
		s.publish(events.NewChatTransferred(chatId.String(), newUserId.String(), source, 0, false))
		return &dto.TransferResponse{Success: true, ChatId: chatId.String(), Source: source}, nil
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: chat %s has no stored or supplied messages", serverutils.ErrNotFound, request.ConversationId)
	}

	if err := s.createChat(ctx, uow, chatId, newUserId, messages); err != nil {
		s.logger.Error("TransferService", "Failed to create chat", map[string]interface{}{
			"conversation_id": request.ConversationId,
			"source":          source,
			"error":           err.Error(),
		})
		return nil, err
	}

	s.logger.Info("TransferService", "Chat created from transfer", map[string]interface{}{
		"chat_id": chatId.String(),
		"saved":   len(messages),
	})
	s.publish(events.NewChatTransferred(chatId.String(), newUserId.String(), source, len(messages), true))

	return &dto.TransferResponse{Success: true, ChatId: chatId.String(), Source: source, Saved: len(messages)}, nil
}

// createChat writes the chat and its messages in one transaction.
func (s *transferService) createChat(ctx context.Context, uow unitofwork.UnitOfWork, chatId, userId uuid.UUID, messages []entity.CachedMessage) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	chat := &entity.Chat{
		Id:     chatId,
		UserId: userId,
		Title:  transferTitle(messages),
	}
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		_ = uow.Rollback()
		return err
	}

	base := s.now()
	for i, m := range messages {
		msg := &entity.Message{
			ChatId:    chatId,
			UserId:    userId,
			Role:      m.Role,
			Content:   m.Content,
			Cards:     m.Cards,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := uow.MessageRepository().Create(ctx, msg); err != nil {
			_ = uow.Rollback()
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}
	return uow.Commit()
}

func (s *transferService) selectMessages(request *dto.TransferRequest) ([]entity.CachedMessage, string) {
	if cached, ok := s.anonymousCache.Drain(request.ConversationId); ok {
		return cached, TransferSourceCache
	}
	messages := make([]entity.CachedMessage, 0, len(request.Messages))
	for _, m := range request.Messages {
		messages = append(messages, entity.CachedMessage{
			Role:    m.Role,
			Content: m.Content,
			Cards:   m.Cards,
		})
	}
	return messages, TransferSourceClient
}

func (s *transferService) reassign(ctx context.Context, uow unitofwork.UnitOfWork, chatId, userId uuid.UUID) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatRepository().UpdateOwner(ctx, chatId, userId); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.MessageRepository().UpdateOwnerByChat(ctx, chatId, userId); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

func transferTitle(messages []entity.CachedMessage) string {
	for _, m := range messages {
		if m.Role == constant.OracleRoleUser && m.Content != "" {
			return utils.TruncateRunes(m.Content, transferTitleRunes)
		}
	}
	return constant.DefaultTransferTitle
}

func (s *transferService) publish(evt events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("TransferService", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

// FullSections returns every section of a stored reading to its entitled owner.
func (s *transferService) FullSections(ctx context.Context, conversationId, messageId, userId string) (*dto.FullSectionsResponse, error) {
	if userId == "" || isAnonymous(userId) {
		return nil, &serverutils.ValidationError{Fields: map[string]string{"userId": "is required"}}
	}
	ownerId, err := uuid.Parse(userId)
	if err != nil {
		return nil, &serverutils.ValidationError{Fields: map[string]string{"userId": "must be a valid uuid"}}
	}

	perms, err := s.permissions.Refresh(ctx, userId)
	if err != nil {
		s.logger.Error("TransferService", "Permission check failed", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, err
	}
	if !perms.SeesFuture() {
		return nil, fmt.Errorf("%w: user cannot see the full future", serverutils.ErrForbidden)
	}

	chatId, err := uuid.Parse(conversationId)
	if err != nil {
		return nil, fmt.Errorf("%w: message", serverutils.ErrNotFound)
	}
	msgId, err := uuid.Parse(messageId)
	if err != nil {
		return nil, fmt.Errorf("%w: message", serverutils.ErrNotFound)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.MessageRepository().FindOne(ctx,
		specification.ByID{ID: msgId},
		specification.ByChatID{ChatID: chatId},
	)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message", serverutils.ErrNotFound)
	}
	if msg.UserId != ownerId {
		return nil, fmt.Errorf("%w: message belongs to another user", serverutils.ErrForbidden)
	}

	stored, _, err := section.DecodeStored(msg.Content)
	if err != nil {
		return &dto.FullSectionsResponse{Sections: nil, RawText: msg.Content}, nil
	}
	if !stored.Sectioned {
		return &dto.FullSectionsResponse{Sections: nil}, nil
	}

	sections := make(map[string]dto.FullSectionDTO, len(section.Order))
	for _, sec := range stored.Visible() {
		sections[string(sec.Key)] = dto.FullSectionDTO{Text: sec.Text, IsTeaser: false}
	}
	return &dto.FullSectionsResponse{Sections: sections}, nil
}
