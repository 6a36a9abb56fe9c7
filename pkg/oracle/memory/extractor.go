// Package memory derives durable facts about a consultant from an exchange
// and hands them to a store for idempotent upsert.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/pkg/llm"
	"tarot-oracle-be/pkg/oracle"
	"tarot-oracle-be/pkg/utils"
)

type Category string

const (
	RecurringTheme Category = "recurring_theme"
	LifeEvent      Category = "life_event"
	Relationship   Category = "relationship"
	Preference     Category = "preference"
	Identity       Category = "identity"
)

func (c Category) Valid() bool {
	switch c {
	case RecurringTheme, LifeEvent, Relationship, Preference, Identity:
		return true
	}
	return false
}

type Layer string

const (
	LayerIdentity  Layer = "identity"
	LayerEmotional Layer = "emotional"
)

const (
	DefaultEmotionalTTLDays = 30
	DefaultConfidence       = 1.0

	interpretationExcerptRunes = 500
)

// Entry is one extracted fact. TTLDays nil means permanent.
type Entry struct {
	Category   Category `json:"category"`
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"`
	Layer      Layer    `json:"layer"`
	TTLDays    *int     `json:"ttl_days"`
}

// Store persists entries keyed by (user, category, key).
type Store interface {
	SaveMemoryEntry(ctx context.Context, userID, conversationID string, entry Entry) error
}

var (
	emailPattern    = regexp.MustCompile(`[[:alnum:]._%+-]+@[[:alnum:].-]+\.[[:alpha:]]{2,}`)
	// Eight or more contiguous digits, or phone-style groups such as
	// "612 345 678" and "+34 612-345-678". Dates and dotted amounts pass.
	digitRunPattern = regexp.MustCompile(`\d{8,}|\+?\b\d{2,3}(?:[ -]\d{3}){2,}\b`)
	keyCleaner      = regexp.MustCompile(`[^a-z0-9_]+`)
)

// IsSensitive reports whether a value looks like an e-mail address or a
// long number (phone, account, document).
func IsSensitive(value string) bool {
	return emailPattern.MatchString(value) || digitRunPattern.MatchString(value)
}

type Extractor struct {
	llmProvider llm.LLMProvider
	store       Store
	logger      logger.ILogger
}

func NewExtractor(llmProvider llm.LLMProvider, store Store, logger logger.ILogger) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		store:       store,
		logger:      logger,
	}
}

// Extract asks the model for entries and keeps only well-formed,
// non-sensitive ones with defaults applied.
func (e *Extractor) Extract(ctx context.Context, question, interpretation string) ([]Entry, error) {
	prompt := fmt.Sprintf("Mensaje del consultante: %q\n\nRespuesta del oráculo (resumen): %q",
		question, utils.TruncateRunes(interpretation, interpretationExcerptRunes))

	response, err := e.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.MemoryExtractorSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.WithTemperature(0), llm.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("memory extraction call: %w", err)
	}

	var raw struct {
		Entries []struct {
			Category   string   `json:"category"`
			Key        string   `json:"key"`
			Value      string   `json:"value"`
			Confidence *float64 `json:"confidence"`
			Layer      string   `json:"layer"`
			TTLDays    *int     `json:"ttl_days"`
		} `json:"entries"`
	}
	if err := oracle.DecodeJSON(response, &raw); err != nil {
		return nil, fmt.Errorf("memory extraction output: %w", err)
	}

	entries := make([]Entry, 0, len(raw.Entries))
	for _, r := range raw.Entries {
		entry := Entry{
			Category:   Category(strings.TrimSpace(r.Category)),
			Key:        normalizeKey(r.Key),
			Value:      strings.TrimSpace(r.Value),
			Confidence: DefaultConfidence,
			Layer:      Layer(strings.TrimSpace(r.Layer)),
			TTLDays:    r.TTLDays,
		}
		if r.Confidence != nil {
			entry.Confidence = min(max(*r.Confidence, 0), 1)
		}
		if entry.Layer == "" {
			entry.Layer = LayerEmotional
		}

		if reason := rejectReason(entry); reason != "" {
			e.logger.Debug("MemoryExtractor", "Entry discarded", map[string]interface{}{
				"key":    entry.Key,
				"reason": reason,
			})
			continue
		}

		if entry.TTLDays == nil && entry.Layer == LayerEmotional {
			ttl := DefaultEmotionalTTLDays
			entry.TTLDays = &ttl
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func rejectReason(e Entry) string {
	switch {
	case !e.Category.Valid():
		return "unknown category"
	case e.Layer != LayerIdentity && e.Layer != LayerEmotional:
		return "unknown layer"
	case e.Key == "" || e.Value == "":
		return "empty key or value"
	case IsSensitive(e.Value):
		return "sensitive value"
	}
	return ""
}

func normalizeKey(key string) string {
	k := strings.ReplaceAll(utils.Fold(strings.TrimSpace(key)), " ", "_")
	return strings.Trim(keyCleaner.ReplaceAllString(k, ""), "_")
}

// ExtractAndStore runs extraction and upserts every entry, returning how
// many were saved. Failures are logged, never returned.
func (e *Extractor) ExtractAndStore(ctx context.Context, userID, conversationID, question, interpretation string) int {
	if userID == "" || userID == constant.AnonymousUserID {
		return 0
	}

	entries, err := e.Extract(ctx, question, interpretation)
	if err != nil {
		e.logger.Warn("MemoryExtractor", "Extraction failed", map[string]interface{}{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
		return 0
	}
	if len(entries) == 0 {
		e.logger.Debug("MemoryExtractor", "No new memory entries", map[string]interface{}{
			"conversation_id": conversationID,
		})
		return 0
	}

	saved := 0
	for _, entry := range entries {
		if err := e.store.SaveMemoryEntry(ctx, userID, conversationID, entry); err != nil {
			e.logger.Error("MemoryExtractor", "Failed to save memory entry", map[string]interface{}{
				"conversation_id": conversationID,
				"key":             entry.Key,
				"error":           err.Error(),
			})
			continue
		}
		saved++
	}

	e.logger.Info("MemoryExtractor", "Memory entries saved", map[string]interface{}{
		"conversation_id": conversationID,
		"saved":           saved,
		"extracted":       len(entries),
	})
	return saved
}
