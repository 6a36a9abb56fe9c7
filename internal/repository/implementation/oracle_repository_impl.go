package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/repository/contract"
	"tarot-oracle-be/pkg/oracle/memory"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OracleRepositoryImpl struct {
	db *gorm.DB
}

func NewOracleRepository(db *gorm.DB) contract.OracleRepository {
	return &OracleRepositoryImpl{db: db}
}

func (r *OracleRepositoryImpl) GetReadingPermissions(ctx context.Context, userID string) (entity.ReadingPermissions, error) {
	var perms entity.ReadingPermissions

	// jsonb is scanned as text and decoded here.
	var raw *string
	err := r.db.WithContext(ctx).
		Raw("SELECT get_user_reading_permissions(?::uuid) AS permissions", userID).
		Scan(&raw).Error
	if err != nil {
		return perms, fmt.Errorf("get_user_reading_permissions: %w", err)
	}
	if raw == nil || *raw == "" || *raw == "null" {
		return perms, nil
	}
	if err := json.Unmarshal([]byte(*raw), &perms); err != nil {
		return perms, fmt.Errorf("decode reading permissions: %w", err)
	}
	return perms, nil
}

func (r *OracleRepositoryImpl) GetMemoryContext(ctx context.Context, userID string) (string, error) {
	var text *string
	err := r.db.WithContext(ctx).
		Raw("SELECT get_user_memory_context(?::uuid)", userID).
		Scan(&text).Error
	if err != nil {
		return "", fmt.Errorf("get_user_memory_context: %w", err)
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

// SaveMemoryEntry records the source chat only when the conversation id is a chat uuid.
func (r *OracleRepositoryImpl) SaveMemoryEntry(ctx context.Context, userID, conversationID string, entry memory.Entry) error {
	var sourceChat *string
	if _, err := uuid.Parse(conversationID); err == nil {
		sourceChat = &conversationID
	}

	err := r.db.WithContext(ctx).Exec(
		`SELECT save_memory_entry(
			p_user_id => ?::uuid,
			p_category => ?,
			p_key => ?,
			p_value => ?,
			p_confidence => ?,
			p_layer => ?,
			p_source_chat_id => ?::uuid,
			p_ttl_days => ?
		)`,
		userID,
		string(entry.Category),
		entry.Key,
		entry.Value,
		entry.Confidence,
		string(entry.Layer),
		sourceChat,
		entry.TTLDays,
	).Error
	if err != nil {
		return fmt.Errorf("save_memory_entry: %w", err)
	}
	return nil
}
