package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallboard-service/internal/api/dto"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/service"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// AccountsHandler exposes the account administration endpoints.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// List handles GET /api/users.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	filter, err := accountFilterFromQuery(c)
	if err != nil {
		return err
	}
	accounts, err := h.accounts.ListAccounts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":  dto.NewAccountResponses(accounts),
		"count": len(accounts),
	})
}

// Get handles GET /api/users/:id.
func (h *AccountsHandler) Get(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accounts.GetAccount(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Create handles POST /api/users.
func (h *AccountsHandler) Create(c *fiber.Ctx) error {
	var req dto.AccountCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidFormat("invalid payload", nil)
	}
	draft, err := req.ToDraft()
	if err != nil {
		return err
	}
	account, err := h.accounts.CreateAccount(c.UserContext(), draft)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Update handles PUT /api/users/:id.
func (h *AccountsHandler) Update(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req dto.AccountUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidFormat("invalid payload", nil)
	}
	patch, err := req.ToPatch()
	if err != nil {
		return err
	}
	account, err := h.accounts.UpdateAccount(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Delete handles DELETE /api/users/:id.
func (h *AccountsHandler) Delete(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteAccount(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "status": "deleted"}})
}

func accountID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidFormat("invalid account id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func accountFilterFromQuery(c *fiber.Ctx) (domain.AccountFilter, error) {
	var filter domain.AccountFilter
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return filter, err
		}
		filter.Role = &role
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := domain.ParseAccountStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("teamId")); raw != "" {
		teamID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || teamID <= 0 {
			return filter, apperrors.NewInvalidFormat("invalid teamId", map[string]any{"team_id": raw})
		}
		filter.TeamID = &teamID
	}
	return filter, nil
}
