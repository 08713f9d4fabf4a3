package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
	"github.com/iexcalibur/lenny-storefront/internal/security"
	"github.com/iexcalibur/lenny-storefront/internal/surface"
)

// PromoAdmin creates promo codes on the remote service.
type PromoAdmin interface {
	CreatePromo(ctx context.Context, code string, rate decimal.Decimal) (domain.PromoCode, error)
}

type PromoHandler struct {
	sessions *surface.Registry
	admin    PromoAdmin
}

func NewPromoHandler(sessions *surface.Registry, admin PromoAdmin) *PromoHandler {
	return &PromoHandler{sessions: sessions, admin: admin}
}

type applyPromoReq struct {
	Code string `json:"code"`
}

// POST /v1/cart/promo
// Always 200: a rejected code comes back as workflow state with the
// error message, never as a blocking HTTP failure.
func (h *PromoHandler) Apply(c *gin.Context) {
	p, ok := security.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_session"})
		return
	}
	sess := h.sessions.Session(c.Request.Context(), p.ID)

	var req applyPromoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, sess.Promo.Apply(ctx, req.Code))
}

// DELETE /v1/cart/promo
func (h *PromoHandler) Clear(c *gin.Context) {
	p, ok := security.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_session"})
		return
	}
	sess := h.sessions.Session(c.Request.Context(), p.ID)
	sess.Promo.Clear()
	c.Status(http.StatusNoContent)
}

type createPromoReq struct {
	Code         string  `json:"code" binding:"required"`
	DiscountRate float64 `json:"discountRate" binding:"required,gt=0,lte=1"`
}

// POST /v1/admin/promo
func (h *PromoHandler) Create(c *gin.Context) {
	var req createPromoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.admin.CreatePromo(ctx, req.Code, decimal.NewFromFloat(req.DiscountRate))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "promo_create_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":         created.Code,
		"discountRate": created.DiscountRate.InexactFloat64(),
	})
}
