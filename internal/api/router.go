package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/amm/internal/api/handler"
	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/config"
	"github.com/evetabi/amm/internal/repository"
	"github.com/evetabi/amm/internal/service"
	"github.com/evetabi/amm/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc     *service.AuthService
	PoolSvc     *service.PoolService
	LiqSvc      *service.LiquidityService
	SwapSvc     *service.SwapService
	AdminSvc    *service.AdminService
	AccountRepo *repository.AccountRepository
	Hub         *ws.Hub
	Cfg         *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	accountH := handler.NewAccountHandler(deps.AuthSvc, deps.AccountRepo)
	poolH := handler.NewPoolHandler(deps.PoolSvc)
	liqH := handler.NewLiquidityHandler(deps.LiqSvc)
	swapH := handler.NewSwapHandler(deps.SwapSvc)
	adminH := handler.NewAdminHandler(deps.AdminSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10)  // 10 req/s per IP for auth endpoints
	tradeRL := middleware.RateLimitMiddleware(30) // 30 req/s per IP for trading endpoints

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", accountH.Register)
			auth.POST("/login", accountH.Login)
			auth.POST("/refresh", accountH.Refresh)
		}

		// ── Pools and quotes (public) ────────────────────────────────────────
		api.GET("/pools", poolH.ListPools)
		api.GET("/pools/:assetA/:assetB", poolH.GetPool)
		api.GET("/pools/:assetA/:assetB/positions", poolH.ListPositions)
		api.GET("/pools/:assetA/:assetB/positions/:depositor", poolH.GetPosition)
		api.GET("/pools/:assetA/:assetB/events", poolH.ListPairEvents)
		api.GET("/quote", swapH.Quote)
		api.GET("/quote/spot", swapH.SpotQuote)
		api.GET("/events", poolH.ListEvents)

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile and balances
			authed.GET("/me", accountH.Me)
			authed.GET("/balances", liqH.GetBalances)
			authed.GET("/balances/:asset", liqH.GetBalance)

			// Pair registration and own position
			authed.POST("/pools", poolH.CreatePair)
			authed.GET("/pools/:assetA/:assetB/position", poolH.GetMyPosition)

			// Liquidity
			liquidity := authed.Group("/liquidity")
			liquidity.Use(tradeRL)
			{
				liquidity.POST("/add", liqH.AddLiquidity)
				liquidity.POST("/remove", liqH.RemoveLiquidity)
			}

			// Swaps
			swap := authed.Group("/swap")
			swap.Use(tradeRL)
			{
				swap.POST("", swapH.Swap)
			}

			// Admin
			admin := authed.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.GET("/fee", adminH.GetFee)
				admin.PUT("/fee", adminH.SetFee)
				admin.POST("/deposit", adminH.Deposit)
				admin.GET("/accounts", adminH.ListAccounts)
				admin.PUT("/accounts/:id/role", adminH.SetAccountRole)
				admin.PUT("/accounts/:id/active", adminH.SetAccountActive)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In DEBUG mode all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Production: allow only evetabi.com (and www.)
			allowed := map[string]bool{
				"https://evetabi.com":     true,
				"https://www.evetabi.com": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
