// Package accounts implements the HTTP handlers for user registration, login,
// and the authenticated profile endpoint. Register and login are public but
// rate limited; both issue a signed JWT on success.
package accounts

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qr-dashboard/qr-dashboard/internal/auth"
	"github.com/qr-dashboard/qr-dashboard/internal/db/models"
	"github.com/qr-dashboard/qr-dashboard/internal/db/repositories"
)

// Handlers holds the dependencies for the account endpoints.
type Handlers struct {
	users    *repositories.UserRepository
	tokenTTL time.Duration
}

// NewHandlers creates account handlers. tokenTTL of 0 uses the JWT default.
func NewHandlers(users *repositories.UserRepository, tokenTTL time.Duration) *Handlers {
	return &Handlers{users: users, tokenTTL: tokenTTL}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ---- POST /api/auth/register -------------------------------------------------------

// @Summary      Register a new account
// @Description  Creates a user account and returns a signed session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  registerRequest  true  "Email, display name, and password"
// @Success      201  {object}  map[string]interface{}  "token, user"
// @Failure      400  {object}  map[string]interface{}  "Validation failure or email already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Email, name, and password are required",
			"error":   err.Error(),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid email address",
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid password",
			"error":   err.Error(),
		})
		return
	}

	existing, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to check existing users",
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Email is already registered",
		})
		return
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to create user",
		})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// ---- POST /api/auth/login ----------------------------------------------------------

// @Summary      Log in
// @Description  Verifies credentials and returns a signed session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  loginRequest  true  "Email and password"
// @Success      200  {object}  map[string]interface{}  "token, user"
// @Failure      400  {object}  map[string]interface{}  "Missing fields"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Email and password are required",
			"error":   err.Error(),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to look up user",
		})
		return
	}
	// Unknown email and wrong password produce the same response so the
	// endpoint cannot be used to enumerate accounts.
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Invalid credentials",
		})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// ---- GET /api/auth/me --------------------------------------------------------------

// @Summary      Current user
// @Description  Returns the profile of the authenticated user.
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Not authenticated"
// @Security     BearerAuth
// @Router       /api/auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	v, ok := c.Get("user")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
		})
		return
	}
	user, ok := v.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to load user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
