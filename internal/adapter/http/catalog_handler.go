package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
	"github.com/iexcalibur/lenny-storefront/internal/security"
	"github.com/iexcalibur/lenny-storefront/internal/surface"
)

// CatalogHandler serves read-only product and order data. Reads never
// block the page: a remote failure logs and renders empty.
type CatalogHandler struct {
	sessions *surface.Registry
}

func NewCatalogHandler(sessions *surface.Registry) *CatalogHandler {
	return &CatalogHandler{sessions: sessions}
}

type productResp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Sold        int     `json:"sold,omitempty"`
	Location    string  `json:"location,omitempty"`
	Category    string  `json:"category,omitempty"`
}

func toProductsResp(products []domain.Product) []productResp {
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, productResp{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price.StringFixed(2),
			ImageURL:    p.ImageRef,
			Description: p.Description,
			Rating:      p.Rating,
			Sold:        p.Sold,
			Location:    p.Location,
			Category:    p.Category,
		})
	}
	return out
}

// GET /v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p, ok := security.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_session"})
		return
	}
	sess := h.sessions.Session(c.Request.Context(), p.ID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{"products": toProductsResp(sess.Products(ctx))})
}

type orderLineResp struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type orderResp struct {
	ID             string          `json:"id"`
	Items          []orderLineResp `json:"items"`
	Total          string          `json:"total"`
	DiscountCode   string          `json:"discountCode,omitempty"`
	DiscountAmount string          `json:"discountAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// GET /v1/orders
func (h *CatalogHandler) ListOrders(c *gin.Context) {
	p, ok := security.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_session"})
		return
	}
	sess := h.sessions.Session(c.Request.Context(), p.ID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	orders := sess.Orders(ctx)

	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		items := make([]orderLineResp, 0, len(o.Lines))
		for _, l := range o.Lines {
			items = append(items, orderLineResp{
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     l.UnitPrice.StringFixed(2),
				Quantity:  l.Quantity,
			})
		}
		out = append(out, orderResp{
			ID:             o.ID,
			Items:          items,
			Total:          o.TotalAmount.StringFixed(2),
			DiscountCode:   o.DiscountCode,
			DiscountAmount: o.DiscountAmount.StringFixed(2),
			CreatedAt:      o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}
