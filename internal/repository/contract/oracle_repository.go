package contract

import (
	"context"

	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/pkg/oracle/memory"
)

// OracleRepository wraps the stored procedures the reading pipeline relies on.
type OracleRepository interface {
	GetReadingPermissions(ctx context.Context, userID string) (entity.ReadingPermissions, error)
	GetMemoryContext(ctx context.Context, userID string) (string, error)
	SaveMemoryEntry(ctx context.Context, userID, conversationID string, entry memory.Entry) error
}
