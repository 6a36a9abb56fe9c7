package entity

import (
	"time"

	"tarot-oracle-be/pkg/tarot"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type Message struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	UserId    uuid.UUID
	Role      string
	Content   string
	Cards     []tarot.DrawnCard
	CreatedAt time.Time
}
