package controller

import (
	"bufio"
	"context"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/dto"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/pkg/serverutils"
	"tarot-oracle-be/internal/service"
	"tarot-oracle-be/pkg/stream"

	"github.com/gofiber/fiber/v2"
)

type IOracleController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler, chatLimiter fiber.Handler)
	SendMessage(ctx *fiber.Ctx) error
	Interpret(ctx *fiber.Ctx) error
	Transfer(ctx *fiber.Ctx) error
	FullSections(ctx *fiber.Ctx) error
	ReadingPermissions(ctx *fiber.Ctx) error
}

type oracleController struct {
	oracleService   service.IOracleService
	transferService service.ITransferService
	logger          logger.ILogger
}

func NewOracleController(
	oracleService service.IOracleService,
	transferService service.ITransferService,
	logger logger.ILogger,
) IOracleController {
	return &oracleController{
		oracleService:   oracleService,
		transferService: transferService,
		logger:          logger,
	}
}

func (c *oracleController) RegisterRoutes(r fiber.Router, auth fiber.Handler, chatLimiter fiber.Handler) {
	h := r.Group("/chat")
	h.Use(auth)
	h.Post("/message", chatLimiter, c.SendMessage)
	h.Post("/interpret", chatLimiter, c.Interpret)
	h.Post("/transfer", c.Transfer)
	h.Get("/message/:conversationId/:messageId/full-sections", c.FullSections)

	u := r.Group("/user")
	u.Use(auth)
	u.Get("/reading-permissions/:userId", c.ReadingPermissions)
}

func (c *oracleController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.ChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.UserId = serverutils.UserID(ctx, req.UserId)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.oracleService.SendMessage(ctx.UserContext(), &req)
	if err != nil {
		c.logger.Error("OracleController", "Chat flow failed", map[string]interface{}{
			"conversation_id": req.ConversationId,
			"error":           err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, constant.ChatErrorMessage))
	}

	return ctx.JSON(res)
}

// Interpret validates and settles the cards, then upgrades the response to
// an event stream. Nothing after the upgrade can change the status code.
func (c *oracleController) Interpret(ctx *fiber.Ctx) error {
	var req dto.InterpretRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.UserId = serverutils.UserID(ctx, req.UserId)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	cards, err := c.oracleService.PrepareCards(&req)
	if err != nil {
		return err
	}

	// The fiber context is recycled once this handler returns.
	streamCtx := context.WithoutCancel(ctx.UserContext())

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := c.oracleService.Interpret(streamCtx, &req, cards, stream.NewSSEWriter(w)); err != nil {
			c.logger.Warn("OracleController", "Interpretation stream ended early", map[string]interface{}{
				"conversation_id": req.ConversationId,
				"error":           err.Error(),
			})
		}
	})
	return nil
}

func (c *oracleController) Transfer(ctx *fiber.Ctx) error {
	var req dto.TransferRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.transferService.Transfer(ctx.UserContext(), &req)
	if err != nil {
		return c.fail(ctx, err, constant.TransferErrorMessage)
	}

	return ctx.JSON(res)
}

func (c *oracleController) FullSections(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx, ctx.Query("userId"))

	res, err := c.transferService.FullSections(ctx.UserContext(), ctx.Params("conversationId"), ctx.Params("messageId"), userId)
	if err != nil {
		return c.fail(ctx, err, constant.FullSectionsErrorMessage)
	}

	return ctx.JSON(res)
}

func (c *oracleController) ReadingPermissions(ctx *fiber.Ctx) error {
	res, err := c.oracleService.ReadingPermissions(ctx.UserContext(), ctx.Params("userId"))
	if err != nil {
		return c.fail(ctx, err, constant.PermissionsErrorMessage)
	}

	return ctx.JSON(res)
}

// fail hides internal errors behind a fixed message; client errors keep theirs.
func (c *oracleController) fail(ctx *fiber.Ctx, err error, message string) error {
	code := serverutils.StatusFor(err)
	if code < fiber.StatusInternalServerError {
		return err
	}
	c.logger.Error("OracleController", message, map[string]interface{}{
		"path":  ctx.Path(),
		"error": err.Error(),
	})
	return ctx.Status(code).JSON(serverutils.ErrorResponse(code, message))
}
