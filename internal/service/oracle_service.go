package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/dto"
	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/pkg/serverutils"
	"tarot-oracle-be/internal/repository/memory"
	"tarot-oracle-be/internal/repository/unitofwork"
	"tarot-oracle-be/pkg/async"
	"tarot-oracle-be/pkg/events"
	"tarot-oracle-be/pkg/oracle"
	"tarot-oracle-be/pkg/oracle/intent"
	"tarot-oracle-be/pkg/oracle/interpreter"
	"tarot-oracle-be/pkg/oracle/section"
	"tarot-oracle-be/pkg/oracle/sufficiency"
	"tarot-oracle-be/pkg/stream"
	"tarot-oracle-be/pkg/tarot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DrawModeClient = "client"
	DrawModeServer = "server"

	spreadSize          = 3
	eventPublishTimeout = 5 * time.Second
)

// ErrClientGone marks a stream whose client stopped reading.
var ErrClientGone = errors.New("client disconnected")

type OracleConfig struct {
	DrawMode  string
	TitleWait time.Duration
}

// IOracleService runs the two-phase reading flow.
type IOracleService interface {
	SendMessage(ctx context.Context, request *dto.ChatMessageRequest) (*dto.ChatMessageResponse, error)
	PrepareCards(request *dto.InterpretRequest) ([]tarot.DrawnCard, error)
	Interpret(ctx context.Context, request *dto.InterpretRequest, cards []tarot.DrawnCard, sink stream.Sink) error
	ReadingPermissions(ctx context.Context, userId string) (*dto.ReadingPermissionsResponse, error)
}

type oracleService struct {
	cfg            OracleConfig
	uowFactory     unitofwork.RepositoryFactory
	decider        *intent.Decider
	evaluator      *sufficiency.Evaluator
	interpreter    *interpreter.Interpreter
	pool           *tarot.Pool
	permissions    *permissionResolver
	anonymousCache *memory.AnonymousCache
	pacer          stream.Pacer
	memoryQueue    IPublisherService
	eventPublisher events.Publisher
	logger         logger.ILogger
	tracer         trace.Tracer
}

func NewOracleService(
	cfg OracleConfig,
	uowFactory unitofwork.RepositoryFactory,
	decider *intent.Decider,
	evaluator *sufficiency.Evaluator,
	interpreter *interpreter.Interpreter,
	pool *tarot.Pool,
	permissionCache *memory.PermissionCache,
	anonymousCache *memory.AnonymousCache,
	pacer stream.Pacer,
	memoryQueue IPublisherService,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) IOracleService {
	if cfg.DrawMode == "" {
		cfg.DrawMode = DrawModeClient
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &oracleService{
		cfg:            cfg,
		uowFactory:     uowFactory,
		decider:        decider,
		evaluator:      evaluator,
		interpreter:    interpreter,
		pool:           pool,
		permissions:    newPermissionResolver(uowFactory, permissionCache, logger),
		anonymousCache: anonymousCache,
		pacer:          pacer,
		memoryQueue:    memoryQueue,
		eventPublisher: eventPublisher,
		logger:         logger,
		tracer:         otel.Tracer("tarot-oracle-be/oracle"),
	}
}

// SendMessage is phase 1: it decides what the question needs and answers
// with a message, a context question or a ready-for-reading payload.
func (s *oracleService) SendMessage(ctx context.Context, request *dto.ChatMessageRequest) (*dto.ChatMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oracle.SendMessage")
	defer span.End()

	userId := normalizeUserID(request.UserId)
	anonymous := isAnonymous(userId)
	answeringContextQuestion := oracle.AnswersContextQuestion(request.History)

	span.SetAttributes(
		attribute.String("conversation.id", request.ConversationId),
		attribute.Bool("user.anonymous", anonymous),
		attribute.Bool("oracle.answering_context_question", answeringContextQuestion),
	)

	var (
		decision     intent.Decision
		futureHidden bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		futureHidden = s.permissions.FutureHidden(gctx, userId)
		return nil
	})
	g.Go(func() error {
		if answeringContextQuestion {
			decision = intent.Decision{Kind: intent.RequiresNewDraw}
			return nil
		}
		var err error
		decision, err = s.decider.Classify(gctx, request.Question, request.History)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("oracle.decision", string(decision.Kind)))

	switch decision.Kind {
	case intent.IsInadequate:
		return &dto.ChatMessageResponse{
			Type: dto.ResponseTypeMessage,
			Role: constant.OracleRoleAssistant,
			Text: decision.Reply,
		}, nil

	case intent.IsFollowUp:
		reply, err := s.interpreter.FollowUp(ctx, request.Question, request.History, request.PersonalContext)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "follow-up failed")
			return nil, err
		}
		s.enqueueMemory(ctx, userId, request.ConversationId, request.Question, reply)
		return &dto.ChatMessageResponse{
			Type: dto.ResponseTypeMessage,
			Role: constant.OracleRoleAssistant,
			Text: reply,
		}, nil

	case intent.RequiresNewDraw:
		contextSummary := ""
		if !answeringContextQuestion {
			evaluation, err := s.evaluator.Evaluate(ctx, request.Question, request.History, request.PersonalContext)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "context evaluation failed")
				return nil, err
			}
			if !evaluation.Proceed {
				return &dto.ChatMessageResponse{
					Type:              dto.ResponseTypeContextQuestion,
					Role:              constant.OracleRoleAssistant,
					Text:              evaluation.OracleQuestion,
					MissingDimension:  string(evaluation.MissingDimension),
					IsContextQuestion: true,
				}, nil
			}
			contextSummary = evaluation.Summary
		}

		memoryContext := s.memoryContext(ctx, userId)

		s.logger.Info("OracleService", "Ready for reading", map[string]interface{}{
			"conversation_id": request.ConversationId,
			"future_hidden":   futureHidden,
			"anonymous":       anonymous,
			"has_memory":      memoryContext != "",
		})

		return &dto.ChatMessageResponse{
			Type:           dto.ResponseTypeReadyForReading,
			ContextSummary: contextSummary,
			MemoryContext:  memoryContext,
			FutureHidden:   &futureHidden,
			CtaMessage:     ctaMessage(anonymous, futureHidden),
			IsAnonymous:    &anonymous,
		}, nil
	}

	err := fmt.Errorf("%w: unknown decision %q", oracle.ErrClassificationFailure, decision.Kind)
	span.RecordError(err)
	return nil, err
}

func ctaMessage(anonymous, futureHidden bool) string {
	switch {
	case anonymous:
		return constant.CtaAnonymous
	case futureHidden:
		return constant.CtaPremiumGate
	default:
		return ""
	}
}

// memoryContext never fails the request; a broken lookup means no memory.
func (s *oracleService) memoryContext(ctx context.Context, userId string) string {
	if isAnonymous(userId) {
		return ""
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	text, err := uow.OracleRepository().GetMemoryContext(ctx, userId)
	if err != nil {
		s.logger.Warn("OracleService", "Memory context unavailable", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return ""
	}
	return text
}

// PrepareCards settles the cards for phase 2 before the stream opens.
func (s *oracleService) PrepareCards(request *dto.InterpretRequest) ([]tarot.DrawnCard, error) {
	if len(request.DrawnCards) == 0 {
		if s.cfg.DrawMode != DrawModeServer {
			return nil, &serverutils.ValidationError{Fields: map[string]string{"drawnCards": "is required"}}
		}
		cards := s.pool.Draw(spreadSize)
		s.logger.Debug("OracleService", "Cards drawn server-side", map[string]interface{}{
			"conversation_id": request.ConversationId,
			"cards":           cardIDs(cards),
		})
		return cards, nil
	}

	cards := make([]tarot.DrawnCard, len(request.DrawnCards))
	for i, card := range request.DrawnCards {
		if card.Name == "" {
			return nil, &serverutils.ValidationError{Fields: map[string]string{
				fmt.Sprintf("drawnCards[%d].name", i): "is required",
			}}
		}
		if card.Position == "" {
			card.Position = tarot.PositionAt(i)
		}
		if card.Orientation == "" {
			card.Orientation = tarot.Upright
		}
		card.Upright = card.Orientation == tarot.Upright
		cards[i] = card
	}
	return cards, nil
}

// Interpret is phase 2. It writes section, interpretation, optional title
// and done events to sink. A failed generation ends the stream with an
// error event; a failed write stops all further writes.
func (s *oracleService) Interpret(ctx context.Context, request *dto.InterpretRequest, cards []tarot.DrawnCard, sink stream.Sink) error {
	ctx, span := s.tracer.Start(ctx, "oracle.Interpret")
	defer span.End()

	userId := normalizeUserID(request.UserId)
	anonymous := isAnonymous(userId)
	futureHidden := s.permissions.FutureHidden(ctx, userId)

	span.SetAttributes(
		attribute.String("conversation.id", request.ConversationId),
		attribute.Bool("user.anonymous", anonymous),
		attribute.Bool("oracle.future_hidden", futureHidden),
		attribute.Int("oracle.cards", len(cards)),
	)

	var title *async.Future[string]
	if len(request.History) == 0 {
		title = async.Start(func() (string, error) {
			return s.interpreter.Title(ctx, request.Question)
		})
	}

	raw, err := s.interpreter.Interpret(ctx, interpreter.Request{
		Question:        request.Question,
		Cards:           cards,
		PersonalContext: request.PersonalContext,
		ContextSummary:  request.ContextSummary,
		MemoryContext:   request.MemoryContext,
		History:         request.History,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interpretation failed")
		if sendErr := sink.Send(stream.EventError, dto.ErrorEvent{Error: constant.InterpretationErrorMessage}); sendErr != nil {
			s.logger.Warn("OracleService", "Could not deliver error event", map[string]interface{}{
				"conversation_id": request.ConversationId,
				"error":           sendErr.Error(),
			})
		}
		return err
	}

	sections := section.Parse(raw)
	visible := section.FilterForPaywall(sections, futureHidden)
	span.SetAttributes(attribute.Bool("oracle.sectioned", sections.Sectioned))

	if anonymous && sections.Sectioned {
		s.cacheAnonymous(request.ConversationId, request.Question, sections, raw, cards)
	}

	for i, sec := range visible.Visible() {
		if err := s.pacer.Wait(ctx, i); err != nil {
			return err
		}
		if err := sink.Send(stream.EventSection, dto.SectionEvent{
			Section:  string(sec.Key),
			Text:     sec.Text,
			IsTeaser: sec.Key == section.Futuro && visible.FutureHidden,
		}); err != nil {
			return s.clientGone(request.ConversationId, err)
		}
	}

	if err := sink.Send(stream.EventInterpretation, dto.InterpretationEvent{
		Text:      visible.VisibleText(),
		Sectioned: sections.Sectioned,
		Cards:     cards,
	}); err != nil {
		return s.clientGone(request.ConversationId, err)
	}

	if title != nil {
		generated, ok, err := title.Await(ctx, s.cfg.TitleWait)
		if ok {
			if err := sink.Send(stream.EventTitle, dto.TitleEvent{Title: generated}); err != nil {
				return s.clientGone(request.ConversationId, err)
			}
		} else {
			s.logger.Warn("OracleService", "Title not delivered", map[string]interface{}{
				"conversation_id": request.ConversationId,
				"error":           err.Error(),
			})
		}
	}

	if err := sink.Send(stream.EventDone, dto.DoneEvent{Complete: true}); err != nil {
		return s.clientGone(request.ConversationId, err)
	}

	s.enqueueMemory(ctx, userId, request.ConversationId, request.Question, raw)
	s.publish(events.NewReadingCompleted(request.ConversationId, userId, anonymous, sections.Sectioned, futureHidden, cardIDs(cards)))
	return nil
}

func (s *oracleService) clientGone(conversationId string, err error) error {
	s.logger.Info("OracleService", "Client disconnected mid-stream", map[string]interface{}{
		"conversation_id": conversationId,
		"error":           err.Error(),
	})
	return fmt.Errorf("%w: %w", ErrClientGone, err)
}

// cacheAnonymous keeps the unfiltered reading so a later transfer can restore it.
func (s *oracleService) cacheAnonymous(conversationId, question string, sections section.Sections, raw string, cards []tarot.DrawnCard) {
	content, err := section.EncodeStored(sections, raw)
	if err != nil {
		s.logger.Error("OracleService", "Failed to encode reading for cache", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		return
	}
	s.anonymousCache.Append(conversationId, entity.CachedMessage{
		Role:    constant.OracleRoleUser,
		Content: question,
	})
	s.anonymousCache.Append(conversationId, entity.CachedMessage{
		Role:    constant.OracleRoleAssistant,
		Content: content,
		Cards:   cards,
	})
}

func (s *oracleService) enqueueMemory(ctx context.Context, userId, conversationId, question, interpretation string) {
	if isAnonymous(userId) || s.memoryQueue == nil {
		return
	}
	payload, err := json.Marshal(dto.MemoryExtractionJob{
		UserId:         userId,
		ConversationId: conversationId,
		Question:       question,
		Interpretation: interpretation,
	})
	if err != nil {
		s.logger.Error("OracleService", "Failed to encode memory job", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := s.memoryQueue.Publish(ctx, payload); err != nil {
		s.logger.Warn("OracleService", "Failed to enqueue memory extraction", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}
}

func (s *oracleService) publish(evt events.Event) {
	async.Go(s.logger, "OracleService", "publish "+evt.EventType(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()
		return s.eventPublisher.Publish(ctx, evt)
	})
}

func (s *oracleService) ReadingPermissions(ctx context.Context, userId string) (*dto.ReadingPermissionsResponse, error) {
	userId = normalizeUserID(userId)
	if isAnonymous(userId) {
		return &dto.ReadingPermissionsResponse{IsAnonymous: true}, nil
	}
	perms, err := s.permissions.Lookup(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &dto.ReadingPermissionsResponse{
		CanSeeFuture: perms.CanSeeFuture,
		IsPremium:    perms.IsPremium,
	}, nil
}

func cardIDs(cards []tarot.DrawnCard) []int {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
