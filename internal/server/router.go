package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutrilog/internal/metrics"
	"nutrilog/internal/service"
	"nutrilog/pkg/logger"
)

type Handler struct {
	svc *service.Service
	log *logger.Logger
}

type RouterConfig struct {
	JWTSecret string
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
	// Ping reports storage health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(svc *service.Service, cfg RouterConfig) *gin.Engine {
	h := &Handler{svc: svc, log: cfg.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(cfg.Logger, cfg.Metrics))

	r.GET("/health", func(c *gin.Context) {
		if cfg.Ping != nil {
			if err := cfg.Ping(c.Request.Context()); err != nil {
				cfg.Logger.Errorw("health check failed", "error", err)
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := Authenticate([]byte(cfg.JWTSecret))
	api := r.Group("/api")

	meals := api.Group("/meals", auth)
	{
		meals.POST("", h.createMeal)
		meals.GET("", h.listMeals)
		meals.GET("/:id", h.getMeal)
		meals.PUT("/:id", h.updateMeal)
	}

	logs := api.Group("/nutrition-logs", auth)
	{
		logs.GET("", h.listNutritionLogs)
		logs.GET("/:date", h.getNutritionLog)
	}

	goals := api.Group("/goals", auth)
	{
		goals.GET("/my", h.myGoal)
		goals.POST("", h.createGoal)
		goals.PUT("/:id", h.updateGoal)
		goals.GET("", AdminOnly(), h.listGoals)
		goals.GET("/:id", AdminOnly(), h.getGoal)
		goals.DELETE("/:id", AdminOnly(), h.deleteGoal)
	}

	foods := api.Group("/foods")
	{
		foods.GET("", h.searchFoods)
		foods.GET("/top", h.topFoods)
		foods.GET("/:id", h.getFood)
		foods.POST("", auth, AdminOnly(), h.createFood)
		foods.PUT("/:id", auth, AdminOnly(), h.updateFood)
		foods.DELETE("/:id", auth, AdminOnly(), h.deleteFood)
		foods.POST("/:id/reviews", auth, h.addReview)
	}

	users := api.Group("/users", auth)
	{
		users.POST("", h.register)
		users.GET("/profile", h.profile)
		users.PUT("/profile", h.updateProfile)
		users.GET("", AdminOnly(), h.listUsers)
		users.GET("/:id", AdminOnly(), h.getUser)
		users.PUT("/:id", AdminOnly(), h.updateUser)
		users.DELETE("/:id", AdminOnly(), h.deleteUser)
	}

	api.GET("/suggestions/nutrition", auth, h.suggest)

	return r
}
