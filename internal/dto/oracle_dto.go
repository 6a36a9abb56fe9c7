package dto

import (
	"tarot-oracle-be/pkg/oracle"
	"tarot-oracle-be/pkg/tarot"
)

const (
	ResponseTypeMessage         = "message"
	ResponseTypeContextQuestion = "context_question"
	ResponseTypeReadyForReading = "ready_for_reading"
)

type ChatMessageRequest struct {
	Question        string        `json:"question" validate:"required"`
	History         []oracle.Turn `json:"history" validate:"dive"`
	PersonalContext string        `json:"personalContext"`
	UserId          string        `json:"userId"`
	ConversationId  string        `json:"conversationId" validate:"required"`
}

// ChatMessageResponse is the phase 1 result. Type selects which fields are set.
type ChatMessageResponse struct {
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`

	// context_question
	MissingDimension  string `json:"missingDimension,omitempty"`
	IsContextQuestion bool   `json:"isContextQuestion,omitempty"`

	// ready_for_reading
	ContextSummary string `json:"contextSummary,omitempty"`
	MemoryContext  string `json:"memoryContext,omitempty"`
	FutureHidden   *bool  `json:"futureHidden,omitempty"`
	CtaMessage     string `json:"ctaMessage,omitempty"`
	IsAnonymous    *bool  `json:"isAnonymous,omitempty"`
}

type InterpretRequest struct {
	Question        string            `json:"question" validate:"required"`
	History         []oracle.Turn     `json:"history" validate:"dive"`
	PersonalContext string            `json:"personalContext"`
	ContextSummary  string            `json:"contextSummary"`
	MemoryContext   string            `json:"memoryContext"`
	DrawnCards      []tarot.DrawnCard `json:"drawnCards" validate:"max=10"`
	UserId          string            `json:"userId"`
	ConversationId  string            `json:"conversationId" validate:"required"`
}

type SectionEvent struct {
	Section  string `json:"section"`
	Text     string `json:"text"`
	IsTeaser bool   `json:"isTeaser"`
}

type InterpretationEvent struct {
	Text      string            `json:"text"`
	Sectioned bool              `json:"sectioned"`
	Cards     []tarot.DrawnCard `json:"cards,omitempty"`
}

type TitleEvent struct {
	Title string `json:"title"`
}

type DoneEvent struct {
	Complete bool `json:"complete"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}

type TransferMessageDTO struct {
	Role    string            `json:"role" validate:"required,oneof=user assistant"`
	Content string            `json:"content"`
	Cards   []tarot.DrawnCard `json:"cards,omitempty"`
}

type TransferRequest struct {
	ConversationId string               `json:"conversationId" validate:"required"`
	NewUserId      string               `json:"newUserId" validate:"required,uuid"`
	Messages       []TransferMessageDTO `json:"messages" validate:"dive"`
}

type TransferResponse struct {
	Success bool   `json:"success"`
	ChatId  string `json:"chatId"`
	Source  string `json:"source"`
	Saved   int    `json:"saved"`
}

type FullSectionDTO struct {
	Text     string `json:"text"`
	IsTeaser bool   `json:"isTeaser"`
}

type FullSectionsResponse struct {
	Sections map[string]FullSectionDTO `json:"sections"`
	RawText  string                    `json:"rawText,omitempty"`
}

type ReadingPermissionsResponse struct {
	CanSeeFuture bool `json:"can_see_future"`
	IsPremium    bool `json:"is_premium"`
	IsAnonymous  bool `json:"is_anonymous"`
}

// MemoryExtractionJob is queued after a reading or follow-up for an
// authenticated user.
type MemoryExtractionJob struct {
	UserId         string `json:"user_id"`
	ConversationId string `json:"conversation_id"`
	Question       string `json:"question"`
	Interpretation string `json:"interpretation"`
}
