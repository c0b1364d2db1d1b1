package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitcoach/internal/domain"
	"fitcoach/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

// LoginRequest carries the free-text identification: the coach token or a
// student email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	StudentID string      `json:"studentId,omitempty"`
	Demo      bool        `json:"demo"`
}

// --- Handler Methods ---

// Login godoc
// @Summary Identify as the coach or a student
// @Description Resolves the identifier and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Identifier"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Identification not recognized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, session, err := h.authService.Login(c.Request.Context(), req.Identifier)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
		}
		return
	}

	c.JSON(http.StatusOK, MapSessionToResponse(token, session))
}

// Me returns the session carried by the caller's token.
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}
	c.JSON(http.StatusOK, session)
}

func MapSessionToResponse(token string, session service.Session) LoginResponse {
	return LoginResponse{
		Token:     token,
		Role:      session.Role,
		StudentID: session.StudentID,
		Demo:      session.Demo,
	}
}
