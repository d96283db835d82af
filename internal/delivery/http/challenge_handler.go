package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tradearena/internal/delivery/http/dto"
	"tradearena/internal/middleware"
	"tradearena/internal/usecase"
)

// ChallengeHandler handles challenge-related requests
type ChallengeHandler struct {
	challengeService   *usecase.ChallengeService
	leaderboardService *usecase.LeaderboardService
}

// NewChallengeHandler creates a new ChallengeHandler
func NewChallengeHandler(challengeService *usecase.ChallengeService, leaderboardService *usecase.LeaderboardService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService:   challengeService,
		leaderboardService: leaderboardService,
	}
}

// List returns all challenges
// GET /api/challenges
func (h *ChallengeHandler) List(c echo.Context) error {
	challenges, err := h.challengeService.List(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, challenges)
}

// Get returns one challenge with its participant count
// GET /api/challenges/:id
func (h *ChallengeHandler) Get(c echo.Context) error {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid challenge ID")
	}

	challenge, count, err := h.challengeService.GetWithParticipantCount(c.Request().Context(), challengeID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.ChallengeOutput{
		Challenge:         challenge,
		ParticipantsCount: &count,
	})
}

// Leaderboard returns the ranked standings of a challenge
// GET /api/challenges/:id/leaderboard
func (h *ChallengeHandler) Leaderboard(c echo.Context) error {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid challenge ID")
	}

	entries, err := h.leaderboardService.Get(c.Request().Context(), challengeID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, entries)
}

// CreatePaymentIntent authorizes an entry-fee charge for a challenge
// POST /api/create-payment-intent
func (h *ChallengeHandler) CreatePaymentIntent(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.CreatePaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		return BadRequestResponse(c, "Challenge ID is required")
	}

	intent, err := h.challengeService.AuthorizePayment(c.Request().Context(), userID, challengeID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.PaymentIntentOutput{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	})
}

// Join enrolls the caller in a challenge after payment confirmation
// POST /api/challenges/:id/join
func (h *ChallengeHandler) Join(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid challenge ID")
	}

	var req dto.JoinChallengeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	participation, err := h.challengeService.Join(c.Request().Context(), userID, challengeID, req.PaymentIntentID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, participation)
}
