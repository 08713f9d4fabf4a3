package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/iexcalibur/lenny-storefront/configs"
	"github.com/iexcalibur/lenny-storefront/internal/adapter/cache"
	httpadapter "github.com/iexcalibur/lenny-storefront/internal/adapter/http"
	"github.com/iexcalibur/lenny-storefront/internal/adapter/http/middleware"
	"github.com/iexcalibur/lenny-storefront/internal/adapter/shopapi"
	"github.com/iexcalibur/lenny-storefront/internal/logging"
	"github.com/iexcalibur/lenny-storefront/internal/surface"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init("storefront", cfg.App.LogFile, cfg.App.LogLevel)

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// remote shop service client
	var opts []shopapi.Option
	if cfg.ShopAPI.ServiceToken != "" {
		opts = append(opts, shopapi.WithServiceToken(cfg.ShopAPI.ServiceToken))
	}
	client := shopapi.New(cfg.ShopAPI.BaseURL, cfg.ShopAPI.Timeout, opts...)

	// infra
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	sessions := surface.NewRegistry(surface.Deps{
		API:           client,
		Idem:          idem,
		PromoErrorTTL: cfg.Promo.ErrorTTL,
		Log:           logging.New("surface"),
	})

	// init handlers + routers + middleware
	sh := httpadapter.NewSessionHandler(cfg)
	ch := httpadapter.NewCartHandler(sessions)
	ph := httpadapter.NewPromoHandler(sessions, client)
	cat := httpadapter.NewCatalogHandler(sessions)
	sessionMW := middleware.NewSession(cfg)
	router := httpadapter.NewRouter(sh, ch, ph, cat, sessionMW)

	cleanup := func() {
		sessions.Close()
		_ = rdb.Close()
	}

	return &App{Router: router}, cleanup, nil
}
