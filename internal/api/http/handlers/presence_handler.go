package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallboard-service/internal/api/dto"
	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/service"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// PresenceHandler exposes agent status and messaging endpoints.
type PresenceHandler struct {
	presence *service.PresenceService
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(presence *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// RecordStatus handles POST /api/status. Agents may only report their own
// status; supervisors and admins may report on behalf of any code.
func (h *PresenceHandler) RecordStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidFormat("invalid payload", nil)
	}

	code := strings.ToUpper(strings.TrimSpace(req.AgentCode))
	if code == "" {
		code = principal.Account.Username
	}
	if principal.Account.Role == domain.RoleAgent && code != principal.Account.Username {
		return apperrors.NewForbidden("agents may only report their own status")
	}

	entry, err := h.presence.RecordStatus(c.UserContext(), service.StatusInput{
		AgentCode: code,
		Status:    req.Status,
		TeamID:    req.TeamID,
		SessionID: req.SessionID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStatusLogResponse(entry)})
}

// CurrentStatus handles GET /api/status/:code.
func (h *PresenceHandler) CurrentStatus(c *fiber.Ctx) error {
	presence, err := h.presence.CurrentStatus(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPresenceResponse(presence)})
}

// History handles GET /api/status/:code/history.
func (h *PresenceHandler) History(c *fiber.Ctx) error {
	limit, err := limitFromQuery(c)
	if err != nil {
		return err
	}
	history, err := h.presence.StatusHistory(c.UserContext(), c.Params("code"), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":  dto.NewStatusLogResponses(history),
		"count": len(history),
	})
}

// SendMessage handles POST /api/messages.
func (h *PresenceHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidFormat("invalid payload", nil)
	}

	msg, err := h.presence.SendMessage(c.UserContext(), service.MessageInput{
		FromCode: principal.Account.Username,
		ToCode:   req.ToCode,
		ToTeamID: req.ToTeamID,
		Content:  req.Content,
		Type:     req.Type,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// Inbox handles GET /api/messages/inbox for the calling account.
func (h *PresenceHandler) Inbox(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, err := limitFromQuery(c)
	if err != nil {
		return err
	}
	msgs, err := h.presence.Inbox(c.UserContext(), principal.Account.Username, principal.Account.TeamID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":  dto.NewMessageResponses(msgs),
		"count": len(msgs),
	})
}

func limitFromQuery(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidFormat("invalid limit", map[string]any{"limit": raw})
	}
	return limit, nil
}
