package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallboard-service/internal/api/dto"
	"github.com/spec-kit/wallboard-service/internal/repository"
)

// TeamsHandler lists the team reference data.
type TeamsHandler struct {
	teams repository.TeamRepository
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teams repository.TeamRepository) *TeamsHandler {
	return &TeamsHandler{teams: teams}
}

// List handles GET /api/teams.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	teams, err := h.teams.List(c.UserContext())
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	return c.JSON(fiber.Map{
		"data":  dto.NewTeamResponses(teams),
		"count": len(teams),
	})
}
