package http

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"tradearena/internal/domain"
	"tradearena/internal/middleware"
	"tradearena/internal/usecase"
)

const defaultActivityLimit = 20

// ParticipationHandler handles participation and activity-feed requests
type ParticipationHandler struct {
	challengeService *usecase.ChallengeService
	activityRepo     domain.ActivityRepository
}

// NewParticipationHandler creates a new ParticipationHandler
func NewParticipationHandler(challengeService *usecase.ChallengeService, activityRepo domain.ActivityRepository) *ParticipationHandler {
	return &ParticipationHandler{
		challengeService: challengeService,
		activityRepo:     activityRepo,
	}
}

// List returns all participations of the caller, joined with challenges
// GET /api/participations
func (h *ParticipationHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// ListActive returns only the caller's active participations
// GET /api/participations/active
func (h *ParticipationHandler) ListActive(c echo.Context) error {
	return h.list(c, true)
}

func (h *ParticipationHandler) list(c echo.Context, activeOnly bool) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	participations, err := h.challengeService.ParticipationsForUser(c.Request().Context(), userID, activeOnly)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, participations)
}

// Activities returns the caller's recent activity feed
// GET /api/activities?limit=N
func (h *ParticipationHandler) Activities(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	limit := defaultActivityLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return BadRequestResponse(c, "limit must be between 1 and 100")
		}
		limit = parsed
	}

	activities, err := h.activityRepo.GetByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, activities)
}
