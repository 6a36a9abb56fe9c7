package mapper

import (
	"encoding/json"
	"time"

	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/model"
	"tarot-oracle-be/pkg/tarot"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Message Mappers

// MessageToEntity decodes the cards column; unreadable JSON yields no cards.
func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var cards []tarot.DrawnCard
	if len(msg.Cards) > 0 {
		_ = json.Unmarshal(msg.Cards, &cards)
	}

	return &entity.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		UserId:    msg.UserId,
		Role:      msg.Role,
		Content:   msg.Content,
		Cards:     cards,
		CreatedAt: msg.CreatedAt,
	}
}

// MessageToModel stores nil cards as SQL NULL.
func (m *ChatMapper) MessageToModel(msg *entity.Message) (*model.Message, error) {
	if msg == nil {
		return nil, nil
	}

	var cards datatypes.JSON
	if len(msg.Cards) > 0 {
		raw, err := json.Marshal(msg.Cards)
		if err != nil {
			return nil, err
		}
		cards = datatypes.JSON(raw)
	}

	return &model.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		UserId:    msg.UserId,
		Role:      msg.Role,
		Content:   msg.Content,
		Cards:     cards,
		CreatedAt: msg.CreatedAt,
	}, nil
}
