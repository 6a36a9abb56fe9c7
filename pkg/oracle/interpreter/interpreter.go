// Package interpreter produces the free-text outputs of the oracle: the
// six-section reading, follow-up replies and conversation titles.
package interpreter

import (
	"context"
	"fmt"
	"strings"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/pkg/llm"
	"tarot-oracle-be/pkg/oracle"
	"tarot-oracle-be/pkg/tarot"
	"tarot-oracle-be/pkg/utils"
)

const (
	titleMaxTokens     = 20
	titleFallbackRunes = 40
)

// Request carries everything the reading is woven from.
type Request struct {
	Question        string
	Cards           []tarot.DrawnCard
	PersonalContext string
	ContextSummary  string
	MemoryContext   string
	History         []oracle.Turn
}

type Interpreter struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewInterpreter(llmProvider llm.LLMProvider, logger logger.ILogger) *Interpreter {
	return &Interpreter{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Interpret returns the raw reading text. Structure is not validated here;
// the section codec falls back to unsectioned text.
func (i *Interpreter) Interpret(ctx context.Context, req Request) (string, error) {
	text, err := i.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.InterpreterSystemPrompt},
		{Role: llm.RoleUser, Content: BuildReadingPrompt(req)},
	}, llm.WithTemperature(0.7))
	if err != nil {
		i.logger.Error("Interpreter", "Interpretation call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", fmt.Errorf("%w: interpretation: %w", oracle.ErrGenerationFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: interpretation: empty output", oracle.ErrGenerationFailure)
	}
	return text, nil
}

// BuildReadingPrompt lays out context, history, question and cards.
func BuildReadingPrompt(req Request) string {
	var b strings.Builder

	if req.PersonalContext != "" {
		b.WriteString(req.PersonalContext)
		b.WriteString("\n\n")
	}
	if req.ContextSummary != "" {
		fmt.Fprintf(&b, "**Contexto emocional detectado:** %s\n\n", req.ContextSummary)
	}
	if req.MemoryContext != "" {
		fmt.Fprintf(&b, "**Contexto conocido del consultante (de sesiones anteriores):**\n%s\n\n", req.MemoryContext)
	}
	if len(req.History) > 0 {
		fmt.Fprintf(&b, "---\n**Historial de la Conversación Anterior:**\n%s\n---\n\n", oracle.FormatDialogue(req.History))
	}

	fmt.Fprintf(&b, "**Pregunta Actual del Consultante:** %q\n\n", req.Question)
	b.WriteString("**Cartas para esta pregunta:**\n")
	for idx, card := range req.Cards {
		fmt.Fprintf(&b, "%d. %s\n", idx+1, card.Label())
	}
	b.WriteString("\n---\nPor favor, genera una interpretación de tarot.")
	return b.String()
}

// FollowUp answers a question about the reading already in the history.
func (i *Interpreter) FollowUp(ctx context.Context, question string, history []oracle.Turn, personalContext string) (string, error) {
	var b strings.Builder
	if personalContext != "" {
		b.WriteString(personalContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "**Historial de la Conversación:**\n%s\n\n", oracle.FormatDialogue(history))
	fmt.Fprintf(&b, "**Mensaje del Consultante:** %q", question)

	text, err := i.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.FollowUpSystemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}, llm.WithTemperature(0.7))
	if err != nil {
		i.logger.Error("Interpreter", "Follow-up call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", fmt.Errorf("%w: follow-up: %w", oracle.ErrGenerationFailure, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: follow-up: empty output", oracle.ErrGenerationFailure)
	}
	return text, nil
}

// Title summarises the opening question in a few words. Quotes are
// stripped and an empty answer falls back to the start of the question.
func (i *Interpreter) Title(ctx context.Context, question string) (string, error) {
	text, err := i.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.TitleSystemPrompt},
		{Role: llm.RoleUser, Content: question},
	}, llm.WithTemperature(0.7), llm.WithMaxTokens(titleMaxTokens))
	if err != nil {
		return "", fmt.Errorf("title: %w", err)
	}

	title := strings.TrimSpace(strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(text))
	if title == "" {
		title = utils.TruncateRunes(question, titleFallbackRunes)
	}
	return title, nil
}
