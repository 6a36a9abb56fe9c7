// Package oracle holds the types shared by the reading pipeline stages.
package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/pkg/tarot"
)

var (
	// ErrClassificationFailure means the decider returned output that does
	// not match its schema. It is fatal for the request.
	ErrClassificationFailure = errors.New("classification failure")

	// ErrGenerationFailure covers failed or malformed calls to the
	// interpretation, follow-up and context evaluation backends.
	ErrGenerationFailure = errors.New("generation failure")
)

// Turn is one message of a conversation as sent by the caller.
type Turn struct {
	Role              string            `json:"role" validate:"required,oneof=user assistant"`
	Content           string            `json:"content"`
	Cards             []tarot.DrawnCard `json:"cards,omitempty"`
	IsContextQuestion bool              `json:"isContextQuestion,omitempty"`
}

// LastAssistant returns the most recent assistant turn, if any.
func LastAssistant(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == constant.OracleRoleAssistant {
			return history[i], true
		}
	}
	return Turn{}, false
}

// AnswersContextQuestion reports whether the caller is replying to an
// oracle question emitted in the previous turn.
func AnswersContextQuestion(history []Turn) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Role == constant.OracleRoleAssistant && last.IsContextQuestion
}

// FormatHistory renders history as "role: content" lines.
func FormatHistory(history []Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, t.Role+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatDialogue renders history with speaker names, separated by blank lines.
func FormatDialogue(history []Turn) string {
	blocks := make([]string, 0, len(history))
	for _, t := range history {
		speaker := "Oráculo"
		if t.Role == constant.OracleRoleUser {
			speaker = "Consultante"
		}
		blocks = append(blocks, speaker+": "+t.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// ExtractJSON returns the outermost {...} span of a model response, which
// tolerates code fences and leading chatter.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

// DecodeJSON extracts and unmarshals a JSON object from a model response.
func DecodeJSON(response string, v any) error {
	raw := ExtractJSON(response)
	if raw == "" {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return nil
}
