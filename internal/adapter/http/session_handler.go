package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iexcalibur/lenny-storefront/configs"
)

type SessionHandler struct {
	cfg configs.Config
}

func NewSessionHandler(cfg configs.Config) *SessionHandler {
	return &SessionHandler{cfg: cfg}
}

// POST /v1/session
// Mints a guest session. The subject becomes the cart owner id for
// every subsequent request carrying the token.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID := "guest-" + uuid.NewString()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": h.cfg.Session.Issuer,
		"aud": h.cfg.Session.Audience,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(h.cfg.Session.TTL).Unix(),
		"sub": userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Session.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.cfg.Session.TTL.Seconds()),
		"user_id":      userID,
	})
}
