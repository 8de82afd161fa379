package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/floodwatch/auth-bridge/internal/domain"
	"github.com/floodwatch/auth-bridge/internal/dto"
	"github.com/floodwatch/auth-bridge/internal/service"
)

// AuthHandler maps the bridge's four operations onto HTTP routes
type AuthHandler struct {
	syncService  service.SyncService
	tokenService service.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(syncService service.SyncService, tokenService service.TokenService) *AuthHandler {
	return &AuthHandler{
		syncService:  syncService,
		tokenService: tokenService,
	}
}

// Sync reconciles a provider identity assertion into the local user store
// @Summary Synchronize a provider identity
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SyncUserRequest true "Identity assertion"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/sync [post]
func (h *AuthHandler) Sync(c *gin.Context) {
	var req dto.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Message: err.Error(),
		})
		return
	}

	user, err := h.syncService.Sync(c.Request.Context(), &domain.IdentityAssertion{
		ExternalID:   req.ExternalID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ImageURL:     req.ImageURL,
		LastSignInAt: req.LastSignInAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// IssueToken mints a fresh bearer token for an already-synced user
// @Summary Issue a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.IssueTokenRequest true "Issuance request"
// @Success 201 {object} dto.TokenResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/tokens [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Message: err.Error(),
		})
		return
	}

	issued, err := h.tokenService.Issue(c.Request.Context(), req.ExternalID, req.ExpiresInMinutes)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tokenResponse(issued))
}

// CurrentToken returns the newest still-valid token for the authenticated subject
// @Summary Get the current valid token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.TokenResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/tokens/current [get]
func (h *AuthHandler) CurrentToken(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	issued, err := h.tokenService.GetCurrent(c.Request.Context(), user.ExternalID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(issued))
}

// VerifyToken validates a presented bearer token
// @Summary Verify a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyTokenRequest true "Token to verify"
// @Success 200 {object} dto.VerifyTokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/tokens/verify [post]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req dto.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Message: err.Error(),
		})
		return
	}

	issued, err := h.tokenService.Validate(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyTokenResponse{
		Valid: true,
		User:  userResponse(issued.User),
	})
}

// GetMe returns the authenticated subject's profile
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Code:    "invalid_token",
			Message: "No authenticated user in request context",
		})
		return nil, false
	}

	user, ok := value.(*domain.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Malformed user in request context",
		})
		return nil, false
	}

	return user, true
}

func userResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		ImageURL:   user.ImageURL,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastSignInAt != nil {
		lastSignIn := user.LastSignInAt.Format(time.RFC3339)
		resp.LastSignInAt = &lastSignIn
	}
	return resp
}

func tokenResponse(issued *domain.IssuedToken) dto.TokenResponse {
	return dto.TokenResponse{
		User:      userResponse(issued.User),
		Token:     issued.Token.Value,
		ExpiresAt: issued.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
