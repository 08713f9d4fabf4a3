package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iexcalibur/lenny-storefront/internal/adapter/http/middleware"
	"github.com/iexcalibur/lenny-storefront/internal/logging"
)

func NewRouter(sh *SessionHandler, ch *CartHandler, ph *PromoHandler, cat *CatalogHandler, session *middleware.Session) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/session", sh.CreateSession)

	v1 := r.Group("/v1", session.Require())
	{
		v1.GET("/products", cat.ListProducts)
		v1.GET("/orders", cat.ListOrders)

		v1.GET("/cart", ch.GetCart)
		v1.GET("/cart/badge", ch.GetBadge)
		v1.GET("/cart/trending", ch.GetTrending)
		v1.POST("/cart/items", ch.AddItem)
		v1.PUT("/cart/items/:productId", ch.SetQuantity)
		v1.DELETE("/cart/items/:productId", ch.RemoveItem)
		v1.POST("/cart/checkout", ch.Checkout)

		v1.POST("/cart/promo", ph.Apply)
		v1.DELETE("/cart/promo", ph.Clear)

		v1.POST("/admin/promo", ph.Create)
	}

	return r
}
