package contract

import (
	"context"

	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	UpdateOwner(ctx context.Context, id, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	UpdateOwnerByChat(ctx context.Context, chatId, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}
