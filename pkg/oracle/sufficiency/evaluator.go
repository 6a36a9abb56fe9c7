// Package sufficiency judges whether a question carries enough context for
// a meaningful draw, or whether one clarifying question should be asked.
package sufficiency

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

// Dimension is one of the four context axes.
type Dimension string

const (
	Timeframe Dimension = "timeframe"
	Focus     Dimension = "focus"
	Agency    Dimension = "agency"
	Intent    Dimension = "intent"
)

func (d Dimension) Valid() bool {
	switch d {
	case Timeframe, Focus, Agency, Intent:
		return true
	}
	return false
}

// Evaluation is either proceed with a summary, or one oracle question
// naming the single missing dimension.
type Evaluation struct {
	Proceed          bool
	Summary          string
	OracleQuestion   string
	MissingDimension Dimension
}

// affirmativeCues are short replies that always mean "go ahead".
var affirmativeCues = map[string]bool{
	"dale":            true,
	"procede":         true,
	"si":              true,
	"si procede":      true,
	"si dale":         true,
	"hazlo":           true,
	"tira las cartas": true,
	"adelante":        true,
	"ok":              true,
	"okay":            true,
	"va":              true,
	"vale":            true,
	"claro":           true,
	"proceed":         true,
	"go ahead":        true,
	"yes":             true,
	"sure":            true,
}

// IsAffirmative reports whether the message is a short action cue.
func IsAffirmative(message string) bool {
	return affirmativeCues[utils.NormalizeUtterance(message)]
}

type Evaluator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewEvaluator(llmProvider llm.LLMProvider, logger logger.ILogger) *Evaluator {
	return &Evaluator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Evaluate never yields more than one oracle question. Output that does not
// fit either variant is an ErrGenerationFailure.
func (e *Evaluator) Evaluate(ctx context.Context, question string, history []oracle.Turn, personalContext string) (Evaluation, error) {
	if IsAffirmative(question) {
		return Evaluation{Proceed: true}, nil
	}

	prompt := fmt.Sprintf("%s\n\nHistorial de conversación:\n%s\n\nPregunta del consultante: %q",
		personalContext, oracle.FormatHistory(history), question)

	response, err := e.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.ContextEvaluatorSystemPrompt},
		{Role: llm.RoleUser, Content: strings.TrimLeft(prompt, "\n")},
	}, llm.WithTemperature(0.3), llm.WithJSONMode())
	if err != nil {
		e.logger.Error("ContextEvaluator", "Evaluation call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Evaluation{}, fmt.Errorf("%w: context evaluation: %w", oracle.ErrGenerationFailure, err)
	}

	eval, err := parseEvaluation(response)
	if err != nil {
		e.logger.Error("ContextEvaluator", "Evaluation output rejected", map[string]interface{}{
			"error":    err.Error(),
			"response": utils.TruncateRunes(response, 200),
		})
		return Evaluation{}, fmt.Errorf("%w: context evaluation: %w", oracle.ErrGenerationFailure, err)
	}

	e.logger.Info("ContextEvaluator", "Context evaluated", map[string]interface{}{
		"proceed":           eval.Proceed,
		"missing_dimension": string(eval.MissingDimension),
	})
	return eval, nil
}

func parseEvaluation(response string) (Evaluation, error) {
	var raw struct {
		Proceed          *bool  `json:"proceed"`
		ContextSummary   string `json:"context_summary"`
		OracleQuestion   string `json:"oracle_question"`
		MissingDimension string `json:"missing_dimension"`
	}
	if err := oracle.DecodeJSON(response, &raw); err != nil {
		return Evaluation{}, err
	}
	if raw.Proceed == nil {
		return Evaluation{}, fmt.Errorf("missing proceed field")
	}

	if *raw.Proceed {
		return Evaluation{Proceed: true, Summary: strings.TrimSpace(raw.ContextSummary)}, nil
	}

	q := strings.TrimSpace(raw.OracleQuestion)
	if q == "" {
		return Evaluation{}, fmt.Errorf("proceed=false without oracle_question")
	}
	dim := Dimension(strings.ToLower(strings.TrimSpace(raw.MissingDimension)))
	if !dim.Valid() {
		return Evaluation{}, fmt.Errorf("invalid missing_dimension %q", raw.MissingDimension)
	}
	return Evaluation{Proceed: false, OracleQuestion: q, MissingDimension: dim}, nil
}
