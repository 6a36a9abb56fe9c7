package unitofwork

import (
	"context"

	"tarot-oracle-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatRepository() contract.ChatRepository
	MessageRepository() contract.MessageRepository
	OracleRepository() contract.OracleRepository
}
