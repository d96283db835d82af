package http

import (
	"context"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"tradearena/internal/delivery/http/dto"
	"tradearena/internal/domain"
	"tradearena/internal/middleware"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userRepo domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Username, email and password are required")
	}
	if len(req.Password) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return BadRequestResponse(c, "Invalid email address")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Friendly conflict messages; the unique indexes are the backstop for
	// concurrent registrations.
	if _, err := h.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return ErrorResponse(c, http.StatusConflict, "already_exists", "Username is already taken")
	}
	if _, err := h.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return ErrorResponse(c, http.StatusConflict, "already_exists", "Email is already registered")
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		DisplayName:  req.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, userOutput(user))
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	// Set HTTP-only cookie
	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  userOutput(user),
	})
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, map[string]string{"message": "Logged out"})
}

// GetMe returns current user details
// GET /api/user/me
func (h *AuthHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, userOutput(user))
}

// UpdateMe updates the caller's display name
// PATCH /api/user/me
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if len(req.DisplayName) > 100 {
		return BadRequestResponse(c, "Display name must be at most 100 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.userRepo.UpdateDisplayName(ctx, userID, req.DisplayName); err != nil {
		return DomainErrorResponse(c, err)
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, userOutput(user))
}

func userOutput(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}
