package handler

import (
	"context"

	identityapp "github.com/carconfig/backend/internal/application/identity"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthService handles sessions and estimation tokens
type AuthService interface {
	Login(ctx context.Context, input identityapp.LoginInput) (*identityapp.LoginResult, error)
	GetCurrentUser(ctx context.Context, userID int64) (*identityapp.UserInfo, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	IssueEstimationToken(ctx context.Context, userID int64) (*identityapp.EstimationTokenResult, error)
}

// LogoutResponse confirms a revoked token
type LogoutResponse struct {
	Message string `json:"message"`
}

// SessionHandler serves login, logout and token endpoints
type SessionHandler struct {
	BaseHandler
	service   AuthService
	loginRate gin.HandlerFunc
}

// NewSessionHandler creates a session handler. loginRate, when not nil,
// guards the login route.
func NewSessionHandler(service AuthService, loginRate gin.HandlerFunc, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{BaseHandler: NewBaseHandler(logger), service: service, loginRate: loginRate}
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if h.loginRate != nil {
		public.POST("/sessions", h.loginRate, h.Login)
	} else {
		public.POST("/sessions", h.Login)
	}
	protected.GET("/sessions/current", h.Current)
	protected.DELETE("/sessions/current", h.Logout)
	protected.GET("/auth-token", h.EstimationToken)
}

// Login godoc
// @Summary      Log in
// @Description  Exchange email and password for an access token
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginInput true "Credentials"
// @Success      201 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sessions [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req identityapp.LoginInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Current godoc
// @Summary      Current user
// @Description  Return the user the access token belongs to
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Logout godoc
// @Summary      Log out
// @Description  Revoke the presented access token until it expires
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.Response{data=LogoutResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sessions/current [delete]
func (h *SessionHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LogoutResponse{Message: "Logged out"})
}

// EstimationToken godoc
// @Summary      Estimation token
// @Description  Issue the short-lived token a client presents to the delivery estimator
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.EstimationTokenResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth-token [get]
func (h *SessionHandler) EstimationToken(c *gin.Context) {
	token, err := h.service.IssueEstimationToken(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, token)
}
