// Package intent classifies an incoming question against the conversation
// before any card is drawn.
package intent

import (
	"context"
	"fmt"
	"strings"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/pkg/llm"
	"tarot-oracle-be/pkg/oracle"
	"tarot-oracle-be/pkg/utils"
)

// Kind is the classification outcome.
type Kind string

const (
	RequiresNewDraw Kind = "requires_new_draw"
	IsFollowUp      Kind = "is_follow_up"
	IsInadequate    Kind = "is_inadequate"
)

// Decision is exactly one of the three kinds. Reply is set only for
// IsInadequate.
type Decision struct {
	Kind  Kind   `json:"type"`
	Reply string `json:"response,omitempty"`
}

// readingCues always force a new draw, even mid-conversation.
var readingCues = []string{
	"cartas",
	"tirada",
	"nueva tirada",
	"lectura",
	"nueva lectura",
	"hazme una lectura",
	"the cards",
	"reading",
	"new reading",
	"new draw",
	"draw again",
}

// greetings on their own carry no question.
var greetings = map[string]bool{
	"hola":            true,
	"holi":            true,
	"buenas":          true,
	"buenos dias":     true,
	"buenas tardes":   true,
	"buenas noches":   true,
	"hola que tal":    true,
	"que tal":         true,
	"saludos":         true,
	"hey":             true,
	"hi":              true,
	"hello":           true,
	"hola oraculo":    true,
	"hola buenas":     true,
	"good morning":    true,
	"good evening":    true,
	"buen dia":        true,
	"hola hola":       true,
	"ey":              true,
	"que onda":        true,
	"hola como estas": true,
}

// HasReadingCue reports whether the question explicitly asks for cards or
// a reading.
func HasReadingCue(question string) bool {
	n := utils.NormalizeUtterance(question)
	for _, cue := range readingCues {
		if utils.ContainsPhrase(n, cue) {
			return true
		}
	}
	return false
}

// IsGreetingOnly reports whether the question is nothing but a greeting.
func IsGreetingOnly(question string) bool {
	return greetings[utils.NormalizeUtterance(question)]
}

type Decider struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewDecider(llmProvider llm.LLMProvider, logger logger.ILogger) *Decider {
	return &Decider{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify decides whether the question needs a new draw, continues the
// previous reading or cannot be answered with cards. Malformed model output
// is returned as ErrClassificationFailure; there is no default intent.
func (d *Decider) Classify(ctx context.Context, question string, history []oracle.Turn) (Decision, error) {
	if HasReadingCue(question) {
		d.logger.Debug("Decider", "Reading cue detected, skipping model", map[string]interface{}{
			"question": utils.TruncateRunes(question, 50),
		})
		return Decision{Kind: RequiresNewDraw}, nil
	}
	if IsGreetingOnly(question) {
		return Decision{Kind: IsInadequate, Reply: constant.GreetingReply}, nil
	}

	prompt := d.buildPrompt(question, history)
	response, err := d.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.DeciderSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.WithTemperature(0), llm.WithJSONMode())
	if err != nil {
		d.logger.Error("Decider", "Classification call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Decision{}, fmt.Errorf("%w: %w", oracle.ErrClassificationFailure, err)
	}

	decision, err := parseDecision(response)
	if err != nil {
		d.logger.Error("Decider", "Classification output rejected", map[string]interface{}{
			"error":    err.Error(),
			"response": utils.TruncateRunes(response, 200),
		})
		return Decision{}, fmt.Errorf("%w: %w", oracle.ErrClassificationFailure, err)
	}

	if decision.Kind == IsFollowUp {
		if _, ok := oracle.LastAssistant(history); !ok {
			d.logger.Warn("Decider", "Follow-up without a prior reading, treating as new draw", nil)
			decision = Decision{Kind: RequiresNewDraw}
		}
	}

	d.logger.Info("Decider", "Question classified", map[string]interface{}{
		"type": string(decision.Kind),
	})
	return decision, nil
}

func (d *Decider) buildPrompt(question string, history []oracle.Turn) string {
	var prompt strings.Builder
	prompt.WriteString("Historial de la conversación:\n")
	prompt.WriteString(oracle.FormatHistory(history))
	prompt.WriteString("\n\nPregunta actual del usuario: \"")
	prompt.WriteString(question)
	prompt.WriteString("\"")
	return prompt.String()
}

func parseDecision(response string) (Decision, error) {
	var raw struct {
		Type     string `json:"type"`
		Response string `json:"response"`
	}
	if err := oracle.DecodeJSON(response, &raw); err != nil {
		return Decision{}, err
	}

	switch Kind(strings.ToLower(strings.TrimSpace(raw.Type))) {
	case RequiresNewDraw:
		return Decision{Kind: RequiresNewDraw}, nil
	case IsFollowUp:
		return Decision{Kind: IsFollowUp}, nil
	case IsInadequate:
		reply := strings.TrimSpace(raw.Response)
		if reply == "" {
			return Decision{}, fmt.Errorf("is_inadequate without response")
		}
		return Decision{Kind: IsInadequate, Reply: reply}, nil
	default:
		return Decision{}, fmt.Errorf("unknown decision type %q", raw.Type)
	}
}
