package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
	"github.com/iexcalibur/lenny-storefront/internal/pricing"
	"github.com/iexcalibur/lenny-storefront/internal/promo"
	"github.com/iexcalibur/lenny-storefront/internal/security"
	"github.com/iexcalibur/lenny-storefront/internal/surface"
	"github.com/iexcalibur/lenny-storefront/internal/usecase"
)

type CartHandler struct {
	sessions *surface.Registry
}

func NewCartHandler(sessions *surface.Registry) *CartHandler {
	return &CartHandler{sessions: sessions}
}

func (h *CartHandler) session(c *gin.Context) (*surface.Session, bool) {
	p, ok := security.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_session"})
		return nil, false
	}
	return h.sessions.Session(c.Request.Context(), p.ID), true
}

type cartLineResp struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl"`
	LineTotal string `json:"lineTotal"`
}

type cartViewResp struct {
	Items  []cartLineResp        `json:"items"`
	Totals pricing.DisplayTotals `json:"totals"`
	Promo  promo.State           `json:"promo"`
	State  string                `json:"state"`
}

func toCartViewResp(snap domain.CartSnapshot, totals pricing.Totals, st promo.State, state string) cartViewResp {
	resp := cartViewResp{
		Items:  make([]cartLineResp, 0, len(snap.Lines)),
		Totals: totals.Display(),
		Promo:  st,
		State:  state,
	}
	for _, l := range snap.Lines {
		resp.Items = append(resp.Items, cartLineResp{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			ImageURL:  l.ImageRef,
			LineTotal: l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(2),
		})
	}
	return resp
}

// GET /v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCartViewResp(
		sess.Cart.Snapshot(),
		sess.Cart.Totals(),
		sess.Promo.State(),
		string(sess.Cart.State()),
	))
}

// GET /v1/cart/badge
func (h *CartHandler) GetBadge(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": sess.Badge.Count()})
}

// GET /v1/cart/trending
func (h *CartHandler) GetTrending(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("limit", "4"))
	if err != nil || n < 1 {
		n = 4
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, toProductsResp(sess.Cart.Trending(ctx, n)))
}

type addItemReq struct {
	ProductID string  `json:"productId" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"required,gt=0"`
	ImageURL  string  `json:"imageUrl"`
}

// POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := sess.Add.Add(ctx, domain.Product{
		ID:       req.ProductID,
		Name:     req.Name,
		Price:    decimal.NewFromFloat(req.Price),
		ImageRef: req.ImageURL,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "cart_update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": sess.Badge.Count()})
}

type setQuantityReq struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// PUT /v1/cart/items/:productId
// Quantity 0 (or below) removes the line.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := sess.Cart.ChangeQuantity(ctx, c.Param("productId"), *req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "cart_update_failed"})
		return
	}
	h.GetCart(c)
}

// DELETE /v1/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := sess.Cart.Remove(ctx, c.Param("productId")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "cart_update_failed"})
		return
	}
	h.GetCart(c)
}

// POST /v1/cart/checkout
// The only operation allowed to surface a blocking failure to the user.
func (h *CartHandler) Checkout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated submissions

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := sess.Checkout(ctx, idemKey)
	if err != nil {
		if errors.Is(err, usecase.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate_submission"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "checkout_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId": out.OrderID,
		"status":  string(out.Status),
	})
}
