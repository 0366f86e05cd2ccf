package api

import (
	"log/slog"
	"net/http"

	"github.com/evetabi/prediction/internal/api/handler"
	"github.com/evetabi/prediction/internal/api/middleware"
	"github.com/evetabi/prediction/internal/config"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles every dependency needed to build the router. Populated
// once in main() and passed to SetupRouter. Unlike the teacher's per-service
// struct (AuthSvc/MarketSvc/BetSvc/WalletRepo), every handler here shares a
// single *engine.Engine — access control happens per call inside the engine,
// not at a shared JWT middleware layer.
type RouterDeps struct {
	Engine *engine.Engine
	Hub    *ws.Hub
	Cfg    *config.Config
	Log    *slog.Logger
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Metrics ──────────────────────────────────────────────────────────────
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(deps.Engine)
	predH := handler.NewPredictionHandler(deps.Engine)
	betH := handler.NewBetHandler(deps.Engine)
	decisionH := handler.NewDecisionHandler(deps.Engine)
	cashOutH := handler.NewCashOutHandler(deps.Engine)
	userH := handler.NewUserHandler(deps.Engine)

	// ── Rate limiters ──────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for auth endpoints
	betRL := middleware.RateLimitMiddleware(30)  // 30 req/s per IP for bet endpoints

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/challenge", authH.CreateChallenge)
			auth.POST("/login", authH.Login)
		}

		// ── Predictions (public reads, per-call access on writes) ─────────────
		predictions := api.Group("/predictions")
		{
			predictions.POST("", predH.CreatePrediction)
			predictions.GET("", predH.ListPredictions)
			predictions.GET("/:id", predH.GetPrediction)
			predictions.GET("/:id/ratio", predH.GetPredictionRatio)
			predictions.GET("/:id/judges", predH.GetPredictionJudges)
			predictions.POST("/:id/judges/accept", predH.AcceptNomination)
			predictions.POST("/:id/judges/refuse", predH.RefuseNomination)
			predictions.GET("/:id/judges/:user", predH.GetJudge)
			predictions.POST("/:id/force-decision", predH.ForceDecisionPeriod)
			predictions.POST("/:id/decision", decisionH.MakeDecision)
			predictions.GET("/:id/cash-out", cashOutH.GetCashOut)
			predictions.POST("/:id/cash-out", cashOutH.CashOutUser)

			betGroup := predictions.Group("/:id/bets")
			betGroup.Use(betRL)
			betGroup.POST("", betH.AddBet)
		}

		// ── Judges (public roster) ────────────────────────────────────────────
		api.GET("/judges", predH.ListJudges)

		// ── Bets (cross-prediction listing/reconciliation) ─────────────────────
		bets := api.Group("/bets")
		bets.Use(betRL)
		{
			bets.GET("", betH.GetBets)
			bets.POST("/check", betH.CheckBet)
			bets.POST("/cancel", betH.CancelBet)
		}

		// ── Cash-outs (cross-prediction listing) ───────────────────────────────
		api.GET("/cash-outs", cashOutH.GetCashOuts)

		// ── Users ──────────────────────────────────────────────────────────────
		users := api.Group("/users")
		{
			users.GET("/:user", userH.GetUser)
			users.GET("/:user/username", userH.GetUsername)
			users.POST("/:user", userH.UpdateUser)
		}

		// ── Admin ──────────────────────────────────────────────────────────────
		admin := api.Group("/admin")
		{
			admin.POST("/bets/pay", betH.PayBet)
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
			allowed := cfg.AllowedOrigins()
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
