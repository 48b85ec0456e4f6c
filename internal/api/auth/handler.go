package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Handler mints user bearer tokens. It stands in for a managed identity
// provider and is guarded by the admin API key.
type Handler struct {
	secret string
	ttl    time.Duration
}

// NewHandler creates an auth handler
func NewHandler(secret string, ttl time.Duration) *Handler {
	return &Handler{secret: secret, ttl: ttl}
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/token", h.Token)
}

// TokenRequest asks for a token for one user
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Token issues a signed HS256 token whose subject is the user id
func (h *Handler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   req.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
	})

	signed, err := token.SignedString([]byte(h.secret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": now.Add(h.ttl),
	})
}
