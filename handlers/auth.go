package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invisibility-inc/echo-backend/internal/config"
	"github.com/invisibility-inc/echo-backend/internal/models"
	"github.com/invisibility-inc/echo-backend/internal/tokens"
	"github.com/invisibility-inc/echo-backend/internal/workos"
	"github.com/invisibility-inc/echo-backend/pkg/logger"
	"github.com/invisibility-inc/echo-backend/pkg/middleware"
)

// Provider is the identity-provider surface the auth handlers depend on.
type Provider interface {
	ExchangeCode(ctx context.Context, code string) (*workos.Profile, error)
	GetUserByID(ctx context.Context, id string) (*workos.Profile, error)
	ListAllUsers(ctx context.Context) ([]workos.Profile, error)
}

// Synchronizer runs the admin-gated bulk sync jobs.
type Synchronizer interface {
	SyncDirectory(ctx context.Context) ([]models.User, error)
	SyncCRM(ctx context.Context) ([]models.User, error)
}

// AuthHandler holds dependencies for the authentication and sync routes.
type AuthHandler struct {
	cfg      *config.Config
	provider Provider
	engine   Synchronizer
}

func NewAuthHandler(cfg *config.Config, provider Provider, engine Synchronizer) *AuthHandler {
	return &AuthHandler{cfg: cfg, provider: provider, engine: engine}
}

// Register wires the routes. auth resolves the bearer identity, admin
// additionally requires the admin capability; both run before the handler.
func (h *AuthHandler) Register(r *gin.Engine, auth, admin gin.HandlerFunc) {
	r.GET("/login", h.Login)
	r.GET("/signup", h.Signup)
	r.GET("/workos/callback", h.Callback)
	r.GET("/workos/callback_nextweb", h.CallbackNextWeb)
	r.GET("/workos/callback_nextweb_dev", h.CallbackNextWebDev)
	r.GET("/token/refresh", auth, h.RefreshToken)
	r.GET("/user", auth, h.GetUser)
	r.GET("/users", auth, admin, h.ListUsers)
	r.GET("/users/sync/workos", auth, admin, h.SyncDirectory)
	r.GET("/users/sync/keywords", auth, admin, h.SyncCRM)
}

// Login redirects to the provider's hosted sign-in UI.
func (h *AuthHandler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.cfg.WorkOS.AuthKitURL)
}

// Signup redirects to the provider's hosted sign-up UI.
func (h *AuthHandler) Signup(c *gin.Context) {
	c.Redirect(http.StatusFound, h.cfg.WorkOS.AuthKitURL+"/sign-up")
}

// Callback completes the OAuth flow for the desktop app: exchanges the
// authorization code for a profile, issues a session token, and hands it back
// through the app's deep link.
func (h *AuthHandler) Callback(c *gin.Context) {
	h.callback(c, "invisibility://auth_callback?token=")
}

// CallbackNextWeb is the same flow for the web app.
func (h *AuthHandler) CallbackNextWeb(c *gin.Context) {
	h.callback(c, "https://chat.i.inc/auth_callback?token=")
}

// CallbackNextWebDev targets a locally running web app.
func (h *AuthHandler) CallbackNextWebDev(c *gin.Context) {
	h.callback(c, "http://localhost:3000/auth_callback?token=")
}

func (h *AuthHandler) callback(c *gin.Context, redirectPrefix string) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code query parameter required"})
		return
	}

	profile, err := h.provider.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		logger.Errorf("code exchange failed: %v", err)
		c.JSON(providerStatus(err), gin.H{"error": "authentication failed"})
		return
	}

	token, err := tokens.Issue(h.cfg, profile.ID)
	if err != nil {
		logger.Errorf("token issuance failed for user %s: %v", profile.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.Redirect(http.StatusFound, redirectPrefix+token)
}

// RefreshToken re-issues a fresh full-window token for the authenticated
// user. There is no rotation state: the current identity is re-validated
// against the provider and a new token is signed.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	profile, err := h.provider.GetUserByID(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Errorf("user lookup failed for %s: %v", id.UserID, err)
		c.JSON(providerStatus(err), gin.H{"error": "failed to fetch user"})
		return
	}

	token, err := tokens.Issue(h.cfg, profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	logger.Infof("refreshed token for user %s", profile.Email)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetUser returns the provider profile of the authenticated user.
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	profile, err := h.provider.GetUserByID(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Errorf("user lookup failed for %s: %v", id.UserID, err)
		c.JSON(providerStatus(err), gin.H{"error": "failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListUsers returns the full provider directory. Admin only.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.provider.ListAllUsers(c.Request.Context())
	if err != nil {
		logger.Errorf("directory listing failed: %v", err)
		c.JSON(providerStatus(err), gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// SyncDirectory upserts the provider directory into the local store. Admin only.
func (h *AuthHandler) SyncDirectory(c *gin.Context) {
	users, err := h.engine.SyncDirectory(c.Request.Context())
	if err != nil {
		logger.Errorf("directory sync failed: %v", err)
		c.JSON(providerStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// SyncCRM propagates unlinked local users to the CRM. Admin only.
func (h *AuthHandler) SyncCRM(c *gin.Context) {
	users, err := h.engine.SyncCRM(c.Request.Context())
	if err != nil {
		logger.Errorf("crm sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// providerStatus maps identity-provider errors to response codes: upstream
// rejections and transport failures are 502, missing users 404, anything
// else 500.
func providerStatus(err error) int {
	var pe *workos.ProviderError
	switch {
	case errors.Is(err, workos.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workos.ErrProviderUnavailable), errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
